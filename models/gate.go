package models

import (
	"net/url"
	"reflect"
)

type GateStatus uint8

const (
	GateStatus_Unresolved GateStatus = iota
	GateStatus_Checking
	GateStatus_Open
	GateStatus_Closed
)

func (s GateStatus) String() string {
	switch s {
	case GateStatus_Unresolved:
		return "unresolved"
	case GateStatus_Checking:
		return "checking"
	case GateStatus_Open:
		return "open"
	case GateStatus_Closed:
		return "closed"
	}
	return "unknown"
}

// Terminal reports whether the status only changes again on a full input
// change or an explicit retry.
func (s GateStatus) Terminal() bool {
	return s == GateStatus_Open || s == GateStatus_Closed
}

// GateInputs is the tuple the gate's state is recomputed from. The gate never
// mutates part of its state in place; any change to this tuple rederives the
// whole snapshot.
type GateInputs struct {
	// PlaybackId of the content item being viewed.
	PlaybackId string
	// Identity is the connected wallet address, empty while disconnected.
	Identity string
	// PlaybackInfo is the resolved playback descriptor, nil until resolution
	// succeeds.
	PlaybackInfo *PlaybackInfo
	// StreamUrl is the playable HLS URL, nil while the asset has no matching
	// source.
	StreamUrl *url.URL
	// NetworkReady is true once the access-control network handshake is done.
	NetworkReady bool
	// ResolutionError carries a policy-resolution failure so the presentation
	// layer can render it distinctly from an access denial.
	ResolutionError string
}

// Equal compares two input tuples. It is the staleness check: an async check
// result is applied only if the inputs it was started with still equal the
// current inputs.
func (in GateInputs) Equal(other GateInputs) bool {
	if in.PlaybackId != other.PlaybackId ||
		in.Identity != other.Identity ||
		in.NetworkReady != other.NetworkReady ||
		in.ResolutionError != other.ResolutionError {
		return false
	}
	if (in.StreamUrl == nil) != (other.StreamUrl == nil) {
		return false
	}
	if in.StreamUrl != nil && in.StreamUrl.String() != other.StreamUrl.String() {
		return false
	}
	return reflect.DeepEqual(in.PlaybackInfo, other.PlaybackInfo)
}

// GateSnapshot is the reactive view exposed to the presentation layer.
type GateSnapshot struct {
	Status GateStatus
	// ErrorDetail is only meaningful when Status is Closed.
	ErrorDetail string
	// StreamUrl is set once the descriptor has a playable HLS source.
	StreamUrl string
	// ResolutionError is set when the playback descriptor itself could not be
	// resolved, which blocks even knowing whether gating is required.
	ResolutionError string
}
