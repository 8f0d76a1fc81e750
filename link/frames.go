package link

import "trackerlink/protocol"

func randomSequence() uint16 { return protocol.RandomSequence() }

func pairingReqFrame(sec Security) []byte {
	return protocol.Encode(protocol.PairingReq{Security: sec})
}

func handshakeReqFrame(sec Security) []byte {
	return protocol.Encode(protocol.HandshakeReq{Security: sec})
}

func heartbeatEchoFrame(seq uint16) []byte {
	return protocol.Encode(protocol.HeartbeatEcho{Seq: seq})
}

func heartbeatRespFrame(seq uint16) []byte {
	return protocol.Encode(protocol.HeartbeatResp{Seq: seq})
}

func otaAckFrame() []byte {
	return protocol.Encode(protocol.OtaAck{})
}
