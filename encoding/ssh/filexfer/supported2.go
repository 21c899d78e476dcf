package filexfer

// Supported2 defines the data of the "supported2" extension pair
// advertised by protocol version 6 servers.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-5.4
type Supported2 struct {
	SupportedAttributeMask   uint32
	SupportedAttributeBits   uint32
	SupportedOpenFlags       uint32
	SupportedAccessMask      uint32
	MaxReadSize              uint32
	SupportedOpenBlockVector uint16
	SupportedBlockVector     uint16

	AttribExtensionNames []string
	ExtensionNames       []string
}

// UnmarshalFrom unmarshals a Supported2 from the given Buffer into s.
//
// Several servers send a truncated prefix of this structure;
// decoding stops without error at the first missing field.
func (s *Supported2) UnmarshalFrom(buf *Buffer) (err error) {
	fields := []*uint32{
		&s.SupportedAttributeMask,
		&s.SupportedAttributeBits,
		&s.SupportedOpenFlags,
		&s.SupportedAccessMask,
		&s.MaxReadSize,
	}

	for _, f := range fields {
		if buf.Len() < 4 {
			return nil
		}

		if *f, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if buf.Len() < 4 {
		return nil
	}

	if s.SupportedOpenBlockVector, err = buf.ConsumeUint16(); err != nil {
		return err
	}

	if s.SupportedBlockVector, err = buf.ConsumeUint16(); err != nil {
		return err
	}

	if buf.Len() < 4 {
		return nil
	}

	count, err := buf.ConsumeUint32()
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		name, err := buf.ConsumeString()
		if err != nil {
			return err
		}

		s.AttribExtensionNames = append(s.AttribExtensionNames, name)
	}

	if buf.Len() < 4 {
		return nil
	}

	count, err = buf.ConsumeUint32()
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		name, err := buf.ConsumeString()
		if err != nil {
			return err
		}

		s.ExtensionNames = append(s.ExtensionNames, name)
	}

	return nil
}

// UnmarshalBinary decodes the binary encoding of Supported2 into s.
func (s *Supported2) UnmarshalBinary(data []byte) error {
	return s.UnmarshalFrom(NewBuffer(data))
}
