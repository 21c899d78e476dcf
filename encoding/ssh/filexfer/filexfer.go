// Package filexfer implements the wire encoding for secsh-filexfer as described in
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-02 (protocol version 3) up to
// https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13 (protocol version 6).
//
// Packet layouts that changed between protocol versions take the negotiated
// version as an argument; everything else is version independent.
package filexfer

// Packet defines the behavior of an SFTP request packet.
//
// Response packets are decoded from a RawPacket by the concrete type,
// as several of them need the negotiated protocol version to parse their body.
type Packet interface {
	MarshalPacket() (header, payload []byte, err error)
}

// ComposePacket converts returns from MarshalPacket into the returns expected by MarshalBinary.
func ComposePacket(header, payload []byte, err error) ([]byte, error) {
	return append(header, payload...), err
}
