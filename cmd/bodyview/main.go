// bodyview shows the output of a depth sensor: the color camera, the depth
// map or the tracked skeletons, switched by voice, gesture or hand.
//
// Usage:
//
//	bodyview run                          # Run with the current context
//	bodyview run --tui                    # Run with a terminal preview
//	bodyview run --voice-stdin            # Read "text<TAB>confidence" lines from stdin
//	bodyview config context set lab --fps=15 --web=8080
//	bodyview event gesture Circle         # Publish an event over MQTT
//	bodyview snapshot -m skeleton out.png # Render one simulated frame
//	bodyview bones -o table               # Print the skeleton topology
//	bodyview bindings                     # Print gesture and voice bindings
//	bodyview prefs                        # List remembered views per sensor
//
// Configuration is stored in ~/.giztoy/bodyview/
package main

import (
	"os"

	"github.com/haivivi/bodyview/cmd/bodyview/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
