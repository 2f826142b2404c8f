package messages

import (
	"fmt"
	"math"
)

// Message is the capability contract shared by all frame payloads. A
// message optionally carries a P1 reference time (the alignment key)
// and/or an independent wall-clock system time; either may be absent.
type Message interface {
	Type() MessageType
	// P1Time returns the reference time in seconds, or false when the
	// message carries none.
	P1Time() (float64, bool)
	// SystemTimeSec returns the wall-clock time in seconds, or false
	// when the message carries none.
	SystemTimeSec() (float64, bool)

	MarshalPayload() ([]byte, error)
	UnmarshalPayload(buf []byte) error
}

// typeInfo registers one variant of the closed message set.
type typeInfo struct {
	newFunc func() Message
	// template returns a value with every numeric payload field set to
	// NaN, used for INSERT alignment placeholders.
	template  func() Message
	hasP1Time bool
}

var typeRegistry = map[MessageType]typeInfo{
	TypePose: {
		newFunc:   func() Message { return &PoseMessage{} },
		template:  func() Message { return &PoseMessage{PositionLLADeg: nan3(), VelocityBodyMPS: nan3()} },
		hasP1Time: true,
	},
	TypeGNSSInfo: {
		newFunc:   func() Message { return &GNSSInfoMessage{} },
		template:  func() Message { return &GNSSInfoMessage{GDOP: math.NaN(), PDOP: math.NaN()} },
		hasP1Time: true,
	},
	TypePoseAux: {
		newFunc:   func() Message { return &PoseAuxMessage{} },
		template:  func() Message { return &PoseAuxMessage{VelocityENUMPS: nan3()} },
		hasP1Time: true,
	},
	TypeEventNotification: {
		newFunc:   func() Message { return &EventNotificationMessage{} },
		template:  func() Message { return &EventNotificationMessage{} },
		hasP1Time: false,
	},
}

func nan3() [3]float64 {
	n := math.NaN()
	return [3]float64{n, n, n}
}

// KnownTypes returns the closed message set in ascending type order.
func KnownTypes() []MessageType {
	return []MessageType{TypePose, TypeGNSSInfo, TypePoseAux, TypeEventNotification}
}

// IsKnownType reports whether t belongs to the closed message set.
func IsKnownType(t MessageType) bool {
	_, ok := typeRegistry[t]
	return ok
}

// HasP1Time reports whether messages of type t carry a P1 reference
// time and therefore participate in time alignment.
func HasP1Time(t MessageType) bool {
	return typeRegistry[t].hasP1Time
}

// New returns a zero-value message of type t.
func New(t MessageType) (Message, error) {
	info, ok := typeRegistry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, uint16(t))
	}
	return info.newFunc(), nil
}

// Decode deserializes a payload of type t.
func Decode(t MessageType, payload []byte) (Message, error) {
	msg, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := msg.UnmarshalPayload(payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return msg, nil
}

// NewPlaceholder synthesizes an alignment placeholder of type t: the
// NaN-filled template with only the reference time overwritten.
func NewPlaceholder(t MessageType, p1TimeSec float64) (Message, error) {
	info, ok := typeRegistry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, uint16(t))
	}
	msg := info.template()
	if setter, ok := msg.(interface{ setP1Time(Timestamp) }); ok {
		setter.setP1Time(NewTimestamp(p1TimeSec))
	}
	return msg, nil
}
