package protocol

// CRC8 computes CRC-8/ATM: polynomial 0x07, initial value 0, no
// reflection and no final xor.
func CRC8(p []byte) byte {
	var crc byte
	for _, b := range p {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
