// Package domain models river water-level readings and the flood-risk rules
// applied to them.
//
// # Data Source
//
// Readings come from a pair of ultrasonic level sensors and flow meters mounted
// on the right and left banks of a monitored channel. Devices post one sample
// every few seconds over HTTP, or publish it to the readings Kafka topic. Each
// sample carries four numbers:
//
//	h_kanan / right_level   water height on the right bank, centimeters
//	h_kiri  / left_level    water height on the left bank, centimeters
//	q_kanan / right_flow    discharge measured on the right bank, liters per second
//	q_kiri  / left_flow     discharge measured on the left bank, liters per second
//
// The Indonesian field names are what deployed firmware sends; the English
// names are accepted for newer devices. Values may arrive as JSON numbers or
// numeric strings. Negative values are accepted (sensor glitches happen) but
// logged as implausible; see [ParseReadingPayload].
//
// # Timestamps
//
// The server assigns CapturedAt at receipt. Client clocks are never trusted.
// All day-boundary logic works in the deployment's civil time zone (by default
// Asia/Jakarta, WIB) through [CivilDate], never by adding a fixed offset to UTC.
//
// # Risk Levels
//
// Four statuses, ordered by severity:
//
//	SAFE   (AMAN)     nothing to report
//	WATCH  (WASPADA)  daily average above the watch bound
//	FLOOD  (BANJIR)   a level above the flood threshold
//	DANGER (BAHAYA)   a level above the danger threshold
//
// The remote classifier historically answers with the Indonesian labels; both
// spellings parse to the same [Status]. The flood flag is always derived from
// the status: 1 for FLOOD and DANGER, 0 otherwise. A remote "prediction" field
// that disagrees with the status is ignored.
//
// # Thresholds
//
// Defaults are 120 / 150 / 180 cm (watch / flood / danger). A single reading
// is classified locally with the flood threshold only ([FallbackVerdict]); the
// daily rollup uses all three ([Summarize]).
package domain
