// ABOUTME: 8-bit and 16-bit differential PCM decompression
// ABOUTME: Decoders carry the last sample so chunked input reconstructs one waveform
package decode

var dpcm16Table = [128]int16{
	0x0000, 0x0008, 0x0010, 0x0020, 0x0030, 0x0040, 0x0050, 0x0060, 0x0070, 0x0080,
	0x0090, 0x00A0, 0x00B0, 0x00C0, 0x00D0, 0x00E0, 0x00F0, 0x0100, 0x0110, 0x0120,
	0x0130, 0x0140, 0x0150, 0x0160, 0x0170, 0x0180, 0x0190, 0x01A0, 0x01B0, 0x01C0,
	0x01D0, 0x01E0, 0x01F0, 0x0200, 0x0208, 0x0210, 0x0218, 0x0220, 0x0228, 0x0230,
	0x0238, 0x0240, 0x0248, 0x0250, 0x0258, 0x0260, 0x0268, 0x0270, 0x0278, 0x0280,
	0x0288, 0x0290, 0x0298, 0x02A0, 0x02A8, 0x02B0, 0x02B8, 0x02C0, 0x02C8, 0x02D0,
	0x02D8, 0x02E0, 0x02E8, 0x02F0, 0x02F8, 0x0300, 0x0308, 0x0310, 0x0318, 0x0320,
	0x0328, 0x0330, 0x0338, 0x0340, 0x0348, 0x0350, 0x0358, 0x0360, 0x0368, 0x0370,
	0x0378, 0x0380, 0x0388, 0x0390, 0x0398, 0x03A0, 0x03A8, 0x03B0, 0x03B8, 0x03C0,
	0x03C8, 0x03D0, 0x03D8, 0x03E0, 0x03E8, 0x03F0, 0x03F8, 0x0400, 0x0440, 0x0480,
	0x04C0, 0x0500, 0x0540, 0x0580, 0x05C0, 0x0600, 0x0640, 0x0680, 0x06C0, 0x0700,
	0x0740, 0x0780, 0x07C0, 0x0800, 0x0900, 0x0A00, 0x0B00, 0x0C00, 0x0D00, 0x0E00,
	0x0F00, 0x1000, 0x1400, 0x1800, 0x1C00, 0x2000, 0x3000, 0x4000,
}

var dpcm8Table = [8]int16{0, 1, 2, 3, 6, 10, 15, 21}

// DPCM8Start is the carry value at the start of an 8-bit DPCM signal
const DPCM8Start = 0x80

// DecodeDPCM16 expands len(in) bytes into len(in) samples of out, starting from
// carry, and returns the last decoded sample for the next chunk
func DecodeDPCM16(out []int16, in []byte, carry int16) int16 {
	sample := int32(carry)
	for i, b := range in {
		delta := int32(dpcm16Table[b&0x7F])
		if b&0x80 != 0 {
			sample -= delta
		} else {
			sample += delta
		}
		out[i] = clampInt16(sample)
		sample = int32(out[i])
	}
	return int16(sample)
}

// DecodeDPCM8 expands each byte of in into two samples (high nibble first).
// out must hold 2*len(in) samples. Returns the unsigned carry for the next chunk.
func DecodeDPCM8(out []int16, in []byte, carry uint8) uint8 {
	sample := carry
	for i, b := range in {
		sample = dpcm8Nibble(&out[i*2], sample, b>>4)
		sample = dpcm8Nibble(&out[i*2+1], sample, b&0x0F)
	}
	return sample
}

func dpcm8Nibble(out *int16, carry uint8, nibble byte) uint8 {
	sample := int16(carry)
	if nibble&0x08 != 0 {
		sample -= dpcm8Table[nibble&0x07]
	} else {
		sample += dpcm8Table[nibble&0x07]
	}
	if sample < 0 {
		sample = 0
	} else if sample > 255 {
		sample = 255
	}
	*out = int16(uint16(sample)<<8 ^ 0x8000)
	return uint8(sample)
}

// DPCM16Decoder decodes a 16-bit DPCM signal delivered in arbitrary chunks
type DPCM16Decoder struct {
	carry int16
}

// Decode fills out[:len(in)] and remembers the carry
func (d *DPCM16Decoder) Decode(out []int16, in []byte) {
	d.carry = DecodeDPCM16(out, in, d.carry)
}

// Reset restarts the signal from silence
func (d *DPCM16Decoder) Reset() {
	d.carry = 0
}

// Carry returns the last decoded sample
func (d *DPCM16Decoder) Carry() int16 {
	return d.carry
}

// DPCM8Decoder decodes an 8-bit DPCM signal delivered in arbitrary chunks
type DPCM8Decoder struct {
	carry   uint8
	started bool
}

// Decode fills out[:2*len(in)] and remembers the carry
func (d *DPCM8Decoder) Decode(out []int16, in []byte) {
	d.start()
	d.carry = DecodeDPCM8(out, in, d.carry)
}

// decodeNibble decodes a single 4-bit code, for interleaved channels that
// each own one nibble of every byte
func (d *DPCM8Decoder) decodeNibble(out *int16, nibble byte) {
	d.start()
	d.carry = dpcm8Nibble(out, d.carry, nibble)
}

func (d *DPCM8Decoder) start() {
	if !d.started {
		d.carry = DPCM8Start
		d.started = true
	}
}

// Reset restarts the signal from the unsigned midpoint
func (d *DPCM8Decoder) Reset() {
	d.started = false
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
