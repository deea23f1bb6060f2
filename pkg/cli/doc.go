// Package cli holds the pieces shared by bodyview commands: the context
// based configuration file, output formatting, the log pane writer and the
// terminal UI styles.
//
// Configuration lives in ~/.giztoy/bodyview/config.yaml and holds named
// contexts, similar to kubectl:
//
//	current_context: lab
//	contexts:
//	  lab:
//	    name: lab
//	    extra:
//	      sensor: sim
//	      fps: "30"
//	      web_port: "8080"
//	      mqtt_url: mqtt://localhost:1883
//
// Command-line flags override context values.
package cli
