// Package app wires the hub together and runs it.
//
// It is the composition root of mcphub: it configures logging, loads the
// server configuration file, builds the hub, registers the builtin "hub"
// in-process server and applies the configured servers.
//
// # Components
//
//   - bootstrap.go: NewApplication, logging setup and the Application type
//   - config.go: runtime settings collected from the command line
//   - services.go: hub construction and in-process factory registration
//   - config_adapter.go: applies a configuration file to the hub via Reconcile
//   - modes.go: the serve loop with signal handling and config reload
//
// # Configuration Reload
//
// With Config.Watch set, the configuration file is watched for changes.
// Every reload is reconciled against the registry: removed servers are
// disconnected, new ones registered and changed ones updated. A file that
// fails to parse, validate or convert is ignored and the previous servers
// keep running. Changes to the settings block only take effect after a
// restart.
//
// # Usage
//
//	cfg := app.NewConfig(false, false, "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
