// Package mqtt provides MQTT connectivity for Greenhouse Core.
//
// Field gateways publish sensor readings on greenhouse/sensor/{id}/reading.
// The core answers with actuator command records on greenhouse/command/{id},
// alert transitions on greenhouse/alert/{zone}, a mirror of every event bus
// event on greenhouse/bus/{name}, and retained day summaries on
// greenhouse/report/{day}. No device is driven directly: a command is a
// message, what the gateway does with it is outside this process.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllSensorReadings(), 1,
//	    func(topic string, payload []byte) error {
//	        id, _ := mqtt.SensorIDFromTopic(topic)
//	        return handle(id, payload)
//	    })
package mqtt
