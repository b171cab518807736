// Package claude supervises Claude CLI processes speaking the stream-json
// protocol.
//
// An Adapter spawns one process per session, frames its stdout into JSON
// values, answers tool permission requests it can decide on its own, and
// reports everything else to subscribers as typed events. Callers answer
// permission prompts, user questions and plan reviews through the
// RespondTo methods.
//
// Basic usage:
//
//	adapter, err := claude.NewAdapter(options.AdapterOptions{
//		Spawner: cli.NewSpawner(&logger),
//	})
//	if err != nil {
//		return err
//	}
//	defer adapter.CleanupAll()
//
//	claude.Subscribe(adapter, func(e claude.PermissionRequestEvent) {
//		adapter.RespondToPermission(e.SessionID, e.RequestID, true)
//	})
//
//	id, err := adapter.Start(ctx, options.RunnerConfig{Prompt: "hello", Cwd: dir})
package claude
