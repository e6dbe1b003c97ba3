// Package kafka provides the Kafka producer used to publish task lifecycle
// events, managed as a component.
//
//   - Component: owns the producer lifecycle (Start/Stop/Health)
//   - kafka/producer: kafka-go writer with TLS/SASL and an Event publisher
//
// # Configuration
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  topic: "whisper-srt.tasks"
//	  tls:
//	    enabled: true
//	    ca_file: /etc/kafka/ca.pem
//	  sasl:
//	    enabled: true
//	    mechanism: SCRAM-SHA-512
package kafka
