// pkg/pipeline/filter.go
package pipeline

// DegenerateSensorType is the sensor label produced when a content field holds
// a second time token such as "1:05". The tokenizer only recognises a time
// token in first position, so later ones split into key "1" and a number.
const DegenerateSensorType = "1"

// IsDegenerateSensorType reports whether a joined row carries the parse
// artifact label and must not reach downstream consumers
func IsDegenerateSensorType(sensorType interface{}) bool {
	s, ok := sensorType.(string)
	return ok && s == DegenerateSensorType
}
