// Package control runs the online greenhouse control loop.
//
// Field gateways publish readings on greenhouse/sensor/{id}/reading. For
// each reading the Service:
//
//  1. publishes READING on the event bus
//  2. writes the value to InfluxDB and the reading to the catalog
//  3. updates the zone's running snapshot and classifies the reading
//  4. feeds the zone's hysteresis controller, whose commands become ACTUATE
//     events and greenhouse/command/{actuator} messages
//  5. raises and clears zone alerts (ALERT_RAISED / ALERT_CLEARED,
//     greenhouse/alert/{zone})
//
// A ticker publishes MODE_TICK for every mode whose schedule is active.
//
// # Usage
//
//	svc := control.New(eventBus, registry,
//	    control.WithMQTT(mqttClient, byte(cfg.MQTT.QoS)),
//	    control.WithTelemetry(influxClient),
//	    control.WithHistory(repo),
//	    control.WithMetrics(m),
//	    control.WithLogger(logger.Component("control")),
//	)
//	go svc.Run(ctx)
package control
