package apexText

import (
	"io"
	"sort"
	"strconv"
	"sync"
)

var (
	tinyBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 64)}
		},
	}
	smallBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 256)}
		},
	}
	mediumBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 1024)}
		},
	}
	largeBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 4096)}
		},
	}

	encodeStatePool = sync.Pool{
		New: func() interface{} {
			return &encodeState{}
		},
	}
	decodeStatePool = sync.Pool{
		New: func() interface{} {
			return &decodeState{}
		},
	}
	mapEntriesPool = sync.Pool{
		New: func() interface{} {
			s := make(mapEntries, 0, 16)
			return &s
		},
	}
)

// ### Buffer Pool Management ###

// getBuffer returns a buffer from the appropriate pool based on the requested size
func getBuffer() *Buffer {
	return getBufferSize(256)
}

// getBufferSize returns a buffer with at least the specified capacity
func getBufferSize(sizeHint int) *Buffer {
	var buf *Buffer

	switch {
	case sizeHint <= 64:
		buf = tinyBuffers.Get().(*Buffer)
	case sizeHint <= 256:
		buf = smallBuffers.Get().(*Buffer)
	case sizeHint <= 1024:
		buf = mediumBuffers.Get().(*Buffer)
	case sizeHint <= 65536:
		buf = largeBuffers.Get().(*Buffer)
		if cap(buf.buf) < sizeHint {
			buf.buf = make([]byte, 0, sizeHint)
		}
	default:
		// round very large requests to a 4KB page and skip the pools
		buf = &Buffer{buf: make([]byte, 0, (sizeHint+4095)&^4095)}
	}

	buf.buf = buf.buf[:0]
	return buf
}

// Return a buffer to the appropriate pool after use
func putBuffer(buf *Buffer) {
	if buf == nil || cap(buf.buf) > 65536 {
		return
	}
	buf.Reset()

	switch {
	case cap(buf.buf) <= 64:
		tinyBuffers.Put(buf)
	case cap(buf.buf) <= 256:
		smallBuffers.Put(buf)
	case cap(buf.buf) <= 1024:
		mediumBuffers.Put(buf)
	default:
		largeBuffers.Put(buf)
	}
}

// ### Walker State Pools ###

func getEncodeState(c *Codec, set *settings, buf *Buffer) *encodeState {
	e := encodeStatePool.Get().(*encodeState)
	e.c, e.set, e.f, e.buf = c, set, c.format, buf
	return e
}

func putEncodeState(e *encodeState) {
	*e = encodeState{}
	encodeStatePool.Put(e)
}

func getDecodeState(c *Codec, set *settings) *decodeState {
	d := decodeStatePool.Get().(*decodeState)
	d.c, d.set, d.f = c, set, c.format
	return d
}

func putDecodeState(d *decodeState) {
	*d = decodeState{}
	decodeStatePool.Put(d)
}

// ### Map Key Sorting ###

func getMapEntries() *mapEntries {
	return mapEntriesPool.Get().(*mapEntries)
}

func putMapEntries(s *mapEntries) {
	if cap(*s) > 1024 {
		return // Don't pool oversize slices
	}
	clear(*s)
	*s = (*s)[:0]
	mapEntriesPool.Put(s)
}

func (s mapEntries) sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].key < s[j].key })
}

// ### Buffer ###

func (b *Buffer) grow(n int) {
	needed := len(b.buf) + n
	if needed <= cap(b.buf) {
		return
	}

	curCap := cap(b.buf)
	var newCap int

	if curCap == 0 {
		newCap = 64
		for newCap < needed {
			newCap <<= 1
		}
	} else if curCap < 8192 {
		newCap = max(curCap*2, needed)
	} else {
		newCap = max(curCap+(curCap/2), needed)
	}

	newBuf := make([]byte, len(b.buf), newCap)
	copy(newBuf, b.buf)
	b.buf = newBuf
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.grow(1)
	b.buf = append(b.buf, c)
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	b.grow(len(s))
	b.buf = append(b.buf, s...)
	return len(s), nil
}

func (b *Buffer) writeInt(i int64) {
	b.grow(20)
	b.buf = strconv.AppendInt(b.buf, i, 10)
}

func (b *Buffer) writeUint(u uint64) {
	b.grow(20)
	b.buf = strconv.AppendUint(b.buf, u, 10)
}

// ReadFrom appends everything r produces until io.EOF.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		b.grow(1024)
		n, err := r.Read(b.buf[len(b.buf):cap(b.buf)])
		b.buf = b.buf[:len(b.buf)+n]
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Bytes returns the buffered bytes. The slice is only valid until the next write.
func (b *Buffer) Bytes() []byte { return b.buf }

// String returns a copy of the buffered bytes.
func (b *Buffer) String() string { return string(b.buf) }

func (b *Buffer) Len() int { return len(b.buf) }

func (b *Buffer) Reset() { b.buf = b.buf[:0] }
