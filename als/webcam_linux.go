//go:build linux

package als

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// v4l2Device is a minimal V4L2 capture device: just enough ioctl plumbing
// to negotiate an RGB3 format at the largest advertised discrete framesize
// and mmap a single capture buffer, in the same bare-syscall style periph
// uses for its sysfs ioctl wrappers (no cgo, no vendor SDK).
type v4l2Device struct {
	f      *os.File
	width  uint32
	height uint32
	buf    []byte
}

const (
	fourCCRGB3 = 'R' | 'G'<<8 | 'B'<<16 | '3'<<24

	v4l2BufTypeVideoCapture = 1
	v4l2MemoryMmap          = 1
	v4l2FrmSizeTypeDiscrete = 1

	vidiocQuerycap     = 0x80685600
	vidiocGFmt         = 0xc0d05604
	vidiocSFmt         = 0xc0d05605
	vidiocReqbufs      = 0xc0145608
	vidiocQuerybuf     = 0xc0585609
	vidiocQbuf         = 0xc058560f
	vidiocDqbuf        = 0xc0585611
	vidiocStreamon     = 0x40045612
	vidiocStreamoff    = 0x40045613
	vidiocEnumFramesize = 0xc02c564a
)

// v4l2PixFormat mirrors struct v4l2_pix_format's leading fields; trailing
// reserved fields are represented as padding.
type v4l2PixFormat struct {
	Width, Height       uint32
	PixelFormat         uint32
	Field               uint32
	BytesPerLine        uint32
	SizeImage           uint32
	Colorspace          uint32
	Priv                uint32
	Flags               uint32
	YcbcrOrHsvEnc       uint32
	Quantization        uint32
	XferFunc            uint32
}

// v4l2Format mirrors struct v4l2_format for the VIDEO_CAPTURE type, which
// is a tagged union in C; we only ever populate the pix member.
type v4l2Format struct {
	Type uint32
	_    [4]byte // alignment padding before the union on amd64/arm64
	Pix  v4l2PixFormat
	_    [200 - 48]byte // pad the union to its C size of 200 bytes (unused)
}

// v4l2Buffer mirrors the leading fields of struct v4l2_buffer that this
// package touches (index, type, bytesused, flags, field, memory, and the
// offset union member), skipping the timestamp/timecode/reserved fields we
// never read. The layout is the 88-byte one of amd64/arm64.
type v4l2Buffer struct {
	Index, Type, BytesUsed, Flags, Field uint32
	_                                    [4]byte  // alignment padding before timestamp
	_                                    [16]byte // timestamp (struct timeval)
	_                                    [16]byte // timecode
	_                                    uint32   // sequence
	Memory                               uint32
	MOrOffset                            uint32
	_                                    [4]byte // rest of the 8-byte m union
	Length                               uint32
	_                                    [12]byte // reserved2, request_fd, tail padding
}

func openV4L2Device(index int) (*v4l2Device, error) {
	path := fmt.Sprintf("/dev/video%d", index)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("als-webcam: %v", err)
	}

	width, height, err := negotiateLargestFramesize(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	format := v4l2Format{Type: v4l2BufTypeVideoCapture}
	format.Pix.Width = width
	format.Pix.Height = height
	format.Pix.PixelFormat = fourCCRGB3
	if err := v4l2Ioctl(f, vidiocSFmt, unsafe.Pointer(&format)); err != nil {
		f.Close()
		return nil, fmt.Errorf("als-webcam: set format: %v", err)
	}

	buf, err := mmapSingleBuffer(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &v4l2Device{f: f, width: format.Pix.Width, height: format.Pix.Height, buf: buf}, nil
}

// negotiateLargestFramesize enumerates every discrete RGB3 framesize the
// device advertises and returns the largest by pixel count, per spec §4.1
// ("negotiates the largest discrete framesize").
func negotiateLargestFramesize(f *os.File) (width, height uint32, err error) {
	type frmsizeEnum struct {
		Index       uint32
		PixelFormat uint32
		Type        uint32
		Width, Height uint32
		_           [24]byte
	}

	var best frmsizeEnum
	for i := uint32(0); ; i++ {
		e := frmsizeEnum{Index: i, PixelFormat: fourCCRGB3}
		if ioErr := v4l2Ioctl(f, vidiocEnumFramesize, unsafe.Pointer(&e)); ioErr != nil {
			break
		}
		if e.Type != v4l2FrmSizeTypeDiscrete {
			continue
		}
		if e.Width*e.Height > best.Width*best.Height {
			best = e
		}
	}
	if best.Width == 0 {
		return 0, 0, fmt.Errorf("als-webcam: no discrete RGB3 framesize advertised")
	}
	return best.Width, best.Height, nil
}

func mmapSingleBuffer(f *os.File) ([]byte, error) {
	type reqbufs struct {
		Count, Type, Memory uint32
		_                   [8]byte
	}
	req := reqbufs{Count: 1, Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMmap}
	if err := v4l2Ioctl(f, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("als-webcam: reqbufs: %v", err)
	}

	qb := v4l2Buffer{Index: 0, Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMmap}
	if err := v4l2Ioctl(f, vidiocQuerybuf, unsafe.Pointer(&qb)); err != nil {
		return nil, fmt.Errorf("als-webcam: querybuf: %v", err)
	}

	data, err := syscall.Mmap(int(f.Fd()), int64(qb.MOrOffset), int(qb.Length), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("als-webcam: mmap: %v", err)
	}
	return data, nil
}

func (d *v4l2Device) captureFrame() ([]byte, int, error) {
	qb := v4l2Buffer{Index: 0, Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMmap}
	if err := v4l2Ioctl(d.f, vidiocQbuf, unsafe.Pointer(&qb)); err != nil {
		return nil, 0, fmt.Errorf("als-webcam: qbuf: %v", err)
	}

	streamType := uint32(v4l2BufTypeVideoCapture)
	if err := v4l2Ioctl(d.f, vidiocStreamon, unsafe.Pointer(&streamType)); err != nil {
		return nil, 0, fmt.Errorf("als-webcam: streamon: %v", err)
	}

	db := v4l2Buffer{Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMmap}
	if err := v4l2Ioctl(d.f, vidiocDqbuf, unsafe.Pointer(&db)); err != nil {
		return nil, 0, fmt.Errorf("als-webcam: dqbuf: %v", err)
	}

	pixels := int(d.width * d.height)
	n := int(db.BytesUsed)
	if n == 0 || n > len(d.buf) {
		n = len(d.buf)
	}
	frameCopy := make([]byte, n)
	copy(frameCopy, d.buf[:n])
	return frameCopy, pixels, nil
}

func (d *v4l2Device) close() error {
	syscall.Munmap(d.buf)
	return d.f.Close()
}

func v4l2Ioctl(f *os.File, op uint, arg unsafe.Pointer) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(op), uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}
