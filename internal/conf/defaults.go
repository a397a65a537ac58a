// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration. The detector defaults follow the
// values the monitor was tuned with: bark threshold 0.65 and thunder threshold
// 0.55, both requiring two consecutive qualifying windows and merging
// detections within a two second sliding cooldown.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "BarkWatch-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/barkwatch.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("realtime.audio.source", "sysdefault")

	viper.SetDefault("realtime.mqtt.enabled", false)
	viper.SetDefault("realtime.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("realtime.mqtt.topic", "barkwatch")
	viper.SetDefault("realtime.mqtt.username", "")
	viper.SetDefault("realtime.mqtt.password", "")
	viper.SetDefault("realtime.mqtt.retain", false)

	viper.SetDefault("realtime.telemetry.enabled", false)
	viper.SetDefault("realtime.telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("yamnet.modelpath", "model/yamnet.tflite")
	viper.SetDefault("yamnet.classmappath", "model/yamnet_class_map.csv")

	viper.SetDefault("detectors.bark.enabled", true)
	viper.SetDefault("detectors.bark.threshold", 0.65)
	viper.SetDefault("detectors.bark.consecutiverequired", 2)
	viper.SetDefault("detectors.bark.cooldownseconds", 2.0)

	viper.SetDefault("detectors.thunder.enabled", true)
	viper.SetDefault("detectors.thunder.threshold", 0.55)
	viper.SetDefault("detectors.thunder.consecutiverequired", 2)
	viper.SetDefault("detectors.thunder.cooldownseconds", 2.0)

	viper.SetDefault("correlation.windowminutes", 30)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "barkwatch.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "barkwatch")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "barkwatch")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
