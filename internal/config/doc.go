// Package config loads the mcphub server configuration.
//
// The configuration is a single file, by default ~/.config/mcphub/servers.yaml.
// The format follows the extension: .yaml and .yml are YAML, .json is read by
// the YAML decoder, and .toml is TOML. Unknown keys are rejected.
//
//	settings:
//	  toolTimeout: 60s
//	  retryTimeout: 30s
//	  localConnectTimeout: 60s
//	servers:
//	  - name: fs
//	    type: stdio
//	    command: npx
//	    args: ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
//	    env: {HOME_DIR: "${HOME}"}
//	  - name: remote
//	    type: http-streamable
//	    serverUrl: https://example.com/mcp
//	    headers: {Authorization: "Bearer ${API_TOKEN}"}
//	    requiredEnvVars: [API_TOKEN]
//	  - name: hub
//	    type: in-process
//
// Servers are enabled unless "enabled: false" is given, and stdio servers load
// lazily unless "lazyLoad: false" is given.
//
// File.ServerConfigs converts entries into api.ServerConfig values for the
// hub. ${VAR} placeholders in env and headers values are resolved at that
// point. In-process entries name a factory registered in Factories.
//
// Watcher reloads the file on change so the caller can hand the new set to
// hub.Reconcile.
package config
