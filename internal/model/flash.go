package model

// FlashKind classifies a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-time notification queued for the next rendered page.
type Flash struct {
	Kind FlashKind `json:"kind"`
	Text string    `json:"text"`
}
