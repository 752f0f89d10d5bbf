package agentenv_test

import (
	"context"
	"fmt"
	"time"

	"github.com/dmora/agentenv"
)

func ExampleResolve() {
	ambient := agentenv.SnapshotFromMap(map[string]string{"MY_VAR": "from_environ"})

	fmt.Println(agentenv.Resolve("MY_VAR", map[string]string{"MY_VAR": "from_options"}, ambient, "default"))
	fmt.Println(agentenv.Resolve("MY_VAR", nil, ambient, "default"))
	fmt.Println(agentenv.Resolve("OTHER", nil, ambient, "default"))
	fmt.Printf("%q\n", agentenv.Resolve("MY_VAR", map[string]string{"MY_VAR": ""}, ambient, "default"))
	// Output:
	// from_options
	// from_environ
	// default
	// ""
}

func ExampleBuildEnv() {
	ambient := agentenv.SnapshotFromMap(map[string]string{
		"PATH":         "/usr/bin",
		"GITHUB_TOKEN": "ghp_secret",
	})
	cfg := agentenv.NewConfig(
		agentenv.WithAPIKey("sk-test"),
		agentenv.WithIsolated(true),
	)
	for _, kv := range agentenv.BuildEnv(cfg, ambient).Environ() {
		fmt.Println(kv)
	}
	// Output:
	// ANTHROPIC_API_KEY=sk-test
	// CLAUDE_CODE_ENTRYPOINT=sdk-go
	// PATH=/usr/bin
}

func ExampleResolveCloseTimeout() {
	ambient := agentenv.SnapshotFromMap(map[string]string{
		agentenv.EnvStreamCloseTimeout: "30000",
	})
	d, err := agentenv.ResolveCloseTimeout(nil, nil, ambient)
	fmt.Println(d, err)

	d, _ = agentenv.ResolveCloseTimeout(nil, nil, agentenv.Snapshot{})
	fmt.Println(d)
	// Output:
	// 30s <nil>
	// 1m0s
}

type doneStream struct{ done chan struct{} }

func (s doneStream) CloseInput() error {
	close(s.done)
	return nil
}

func (s doneStream) Done() <-chan struct{} { return s.done }

func ExampleShutdownController() {
	stream := doneStream{done: make(chan struct{})}
	ctrl := agentenv.NewShutdownController(stream, nil, nil, agentenv.WithTimeout(time.Second))

	outcome, err := ctrl.Close(context.Background())
	fmt.Println(outcome, err, ctrl.State())
	// Output: closed <nil> closed
}
