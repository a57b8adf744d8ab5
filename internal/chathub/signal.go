package chathub

import "github.com/pion/webrtc/v4"

func isOffer(desc webrtc.SessionDescription) bool {
	return desc.Type == webrtc.SDPTypeOffer && desc.SDP != ""
}

func isAnswer(desc webrtc.SessionDescription) bool {
	return (desc.Type == webrtc.SDPTypeAnswer || desc.Type == webrtc.SDPTypePranswer) && desc.SDP != ""
}
