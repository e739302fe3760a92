package story

// checksumStart is the first byte included in the header checksum.
const checksumStart = 0x40

// Verify sums the bytes from 0x40 up to the header's file length, modulo
// 0x10000, and reports whether the sum matches the header checksum. Bytes
// past the end of the image count as zero, as stories are often padded
// short. A zero file length (very early stories) sums the whole image.
func (s *Story) Verify() (sum uint16, ok bool) {
	end := s.header.FileLength
	if end == 0 {
		end = s.Len()
	}
	base := s.dynamic.Len()
	sum = s.dynamic.Sum(checksumStart, end) + s.static.Sum(checksumStart-base, end-base)
	return sum, sum == s.header.Checksum
}
