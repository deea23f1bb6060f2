package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/bodyview/pkg/cli"
	"github.com/haivivi/bodyview/pkg/eventbus"
	"github.com/haivivi/bodyview/pkg/view"
)

var eventFlags struct {
	mqttURL    string
	namespace  string
	sensor     string
	encoding   string
	confidence float64
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Publish a view event over MQTT",
	Long: `Publish a view event to a running viewer over MQTT, the way an external
recognizer would.

Examples:
  bodyview event gesture SwipeToLeft
  bodyview event voice Depth --confidence=0.8
  bodyview event view skeleton --mqtt=mqtt://broker:1883`,
}

var eventGestureCmd = &cobra.Command{
	Use:   "gesture <name>",
	Short: "Publish a recognized gesture (SwipeToLeft, Circle)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishEvent(cmd, &view.Gesture{Name: args[0]})
	},
}

var eventVoiceCmd = &cobra.Command{
	Use:   "voice <token>",
	Short: "Publish a voice command token (Color, Depth, Skeleton)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishEvent(cmd, &view.VoiceCommand{Token: args[0], Confidence: eventFlags.confidence})
	},
}

var eventViewCmd = &cobra.Command{
	Use:   "view <mode>",
	Short: "Publish a direct view selection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := view.ParseMode(args[0])
		if err != nil {
			return err
		}
		return publishEvent(cmd, &view.Selection{Mode: m})
	},
}

func publishEvent(cmd *cobra.Command, ev view.Event) error {
	settings, err := contextSettings()
	if err != nil {
		return err
	}
	url := settings.MQTTURL
	if cmd.Flags().Changed("mqtt") {
		url = eventFlags.mqttURL
	}
	if url == "" {
		url = "mqtt://localhost:1883"
	}
	ns := settings.MQTTNamespace
	if cmd.Flags().Changed("namespace") {
		ns = eventFlags.namespace
	}
	sensorName := settings.Sensor
	if cmd.Flags().Changed("sensor") || sensorName == "" {
		sensorName = eventFlags.sensor
	}
	enc, err := eventbus.ParseEncoding(eventFlags.encoding)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	client, err := eventbus.Dial(ctx, eventbus.Config{
		URL:      url,
		Topics:   eventbus.Topics{Namespace: ns, Sensor: sensorName},
		Encoding: enc,
		OnConnectError: func(err error) {
			cli.PrintError("connect %s: %v", cli.RedactURL(url), err)
		},
	})
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	if err := client.Publish(ctx, ev); err != nil {
		return err
	}
	topic := eventbus.Topics{Namespace: ns, Sensor: sensorName}.Topic(view.EventType(ev))
	cli.PrintSuccess("Published %s event to %s", view.EventType(ev), topic)
	return nil
}

func init() {
	pf := eventCmd.PersistentFlags()
	pf.StringVar(&eventFlags.mqttURL, "mqtt", "", "MQTT broker URL (default mqtt://localhost:1883)")
	pf.StringVar(&eventFlags.namespace, "namespace", "", "MQTT topic namespace")
	pf.StringVar(&eventFlags.sensor, "sensor", "sim", "target sensor name")
	pf.StringVar(&eventFlags.encoding, "encoding", "json", "payload encoding: json or msgpack")
	eventVoiceCmd.Flags().Float64Var(&eventFlags.confidence, "confidence", 1, "recognition confidence")

	eventCmd.AddCommand(eventGestureCmd)
	eventCmd.AddCommand(eventVoiceCmd)
	eventCmd.AddCommand(eventViewCmd)
}
