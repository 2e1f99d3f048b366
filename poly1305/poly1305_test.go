package poly1305

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	xpoly1305 "golang.org/x/crypto/poly1305"
)

// The first entry is the RFC 8439 section 2.5.2 vector.  The others reuse
// its key with messages that exercise a single short block and a run of full
// blocks with no trailing short one.
var tagVectors = []struct {
	name string
	key  string
	msg  []byte
	tag  string
}{
	{
		name: "2.5.2",
		key:  "85d6be7857556d337f4452fe42d506a80103808afb0db2fd4abff6af4149f51b",
		msg:  []byte("Cryptographic Forum Research Group"),
		tag:  "a8061dc1305136c6c22b8baf0c0127a9",
	},
	{
		name: "short",
		key:  "85d6be7857556d337f4452fe42d506a80103808afb0db2fd4abff6af4149f51b",
		msg:  []byte("abc"),
		tag:  "15236b63cfae517835ec52931778027c",
	},
	{
		name: "full blocks",
		key:  "85d6be7857556d337f4452fe42d506a80103808afb0db2fd4abff6af4149f51b",
		msg: func() []byte {
			m := make([]byte, 64)
			for i := range m {
				m[i] = byte(i)
			}
			return m
		}(),
		tag: "2a7bebadae829f595bbde2cb6cca72a9",
	},
}

func mustUnhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("failed to decode hex %q: %v", s, err)
	}
	return b
}

func TestTagVectors(t *testing.T) {
	for _, v := range tagVectors {
		var key [KeySize]byte
		copy(key[:], mustUnhex(t, v.key))
		expected := mustUnhex(t, v.tag)

		var tag [Size]byte
		Sum(&tag, v.msg, &key)
		if !bytes.Equal(tag[:], expected) {
			t.Errorf("[%s]: tag mismatch\n got: %x\nwant: %x", v.name, tag, expected)
		}

		// The incremental interface must agree with the one shot helper.
		st, err := New(key[:])
		if err != nil {
			t.Fatalf("[%s]: New failed: %v", v.name, err)
		}
		st.Write(v.msg)
		if sum := st.Sum(nil); !bytes.Equal(sum, expected) {
			t.Errorf("[%s]: incremental tag mismatch\n got: %x\nwant: %x", v.name, sum, expected)
		}
	}
}

// An empty message reduces to tag = s, since the accumulator never leaves 0.
func TestEmptyMessage(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[16:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	if _, err := rand.Read(key[:16]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	var tag [Size]byte
	Sum(&tag, nil, &key)
	if !bytes.Equal(tag[:], key[16:]) {
		t.Errorf("empty message tag is not s\n got: %x\nwant: %x", tag, key[16:])
	}
}

// With r clamped to zero every product vanishes, leaving tag = s for any
// message.
func TestZeroRKey(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[16:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	var tag [Size]byte
	Sum(&tag, []byte("any message at all, of any length whatsoever"), &key)
	if !bytes.Equal(tag[:], key[16:]) {
		t.Errorf("zero r tag is not s\n got: %x\nwant: %x", tag, key[16:])
	}
}

func TestZeroKey(t *testing.T) {
	var key [KeySize]byte
	var zero [Size]byte

	var tag [Size]byte
	Sum(&tag, []byte("message under the all zero key"), &key)
	if !bytes.Equal(tag[:], zero[:]) {
		t.Errorf("all zero key tag is not zero: %x", tag)
	}
}

// The length encoding must keep a message and the same message with a zero
// byte appended from colliding.
func TestTrailingZeroDistinct(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	msg := []byte("some short payload")
	var tag1, tag2 [Size]byte
	Sum(&tag1, msg, &key)
	Sum(&tag2, append(msg, 0), &key)
	if bytes.Equal(tag1[:], tag2[:]) {
		t.Errorf("appending a zero byte did not change the tag")
	}
}

// Init must clamp r: whatever the key bytes, the masked out bits of the
// multiplier are always clear.
func TestClamp(t *testing.T) {
	masks := [4]uint32{0x0fffffff, 0x0ffffffc, 0x0ffffffc, 0x0ffffffc}
	for i := 0; i < 128; i++ {
		var key [KeySize]byte
		if _, err := rand.Read(key[:]); err != nil {
			t.Fatalf("rand.Read failed: %v", err)
		}

		var st Poly1305
		st.Init(key[:])

		// Repack the 26 bit limbs into the 4 little endian words of r.
		words := [4]uint32{
			st.r[0] | st.r[1]<<26,
			st.r[1]>>6 | st.r[2]<<20,
			st.r[2]>>12 | st.r[3]<<14,
			st.r[3]>>18 | st.r[4]<<8,
		}
		for j, w := range words {
			if w&^masks[j] != 0 {
				t.Fatalf("word %d of clamped r has masked bits set: %08x", j, w)
			}
		}
	}
}

// Flipping any single bit of the message must change the tag.
func TestBitFlipChangesTag(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	msg := make([]byte, 100)
	if _, err := rand.Read(msg); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	var tag [Size]byte
	Sum(&tag, msg, &key)

	for _, pos := range []int{0, 1, 15, 16, 17, 63, 99} {
		flipped := make([]byte, len(msg))
		copy(flipped, msg)
		flipped[pos] ^= 1 << uint(pos%8)

		var other [Size]byte
		Sum(&other, flipped, &key)
		if bytes.Equal(tag[:], other[:]) {
			t.Errorf("flipping bit %d of byte %d left the tag unchanged", pos%8, pos)
		}
	}
}

// Splitting the message across Write calls must not change the tag,
// regardless of how the split points fall relative to the block size.
func TestIncrementalWrites(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	msg := make([]byte, 337)
	if _, err := rand.Read(msg); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	var oneShot [Size]byte
	Sum(&oneShot, msg, &key)

	for _, step := range []int{1, 2, 15, 16, 17, 33, 128} {
		st, err := New(key[:])
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		for off := 0; off < len(msg); off += step {
			end := off + step
			if end > len(msg) {
				end = len(msg)
			}
			st.Write(msg[off:end])
		}
		if sum := st.Sum(nil); !bytes.Equal(sum, oneShot[:]) {
			t.Errorf("step %d: tag differs from one shot", step)
		}
	}
}

// Sum must work on a copy of the state, so calling it twice gives the same
// tag.
func TestSumDoesNotMutate(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	st, err := New(key[:])
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	st.Write([]byte("partial block left buffered"))
	first := st.Sum(nil)
	second := st.Sum(nil)
	if !bytes.Equal(first, second) {
		t.Errorf("repeated Sum calls disagree: %x vs %x", first, second)
	}
}

func TestInvalidKey(t *testing.T) {
	if _, err := New(make([]byte, KeySize-1)); err != ErrInvalidKeySize {
		t.Errorf("short key: unexpected error: %v", err)
	}
	if _, err := New(make([]byte, KeySize+1)); err != ErrInvalidKeySize {
		t.Errorf("long key: unexpected error: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Init with a short key did not panic")
		}
	}()
	var st Poly1305
	st.Init(make([]byte, 16))
}

func TestResetPanics(t *testing.T) {
	st, err := New(make([]byte, KeySize))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Reset did not panic")
		}
	}()
	st.Reset()
}

func TestVerify(t *testing.T) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	msg := []byte("attack at dawn")

	var tag [Size]byte
	Sum(&tag, msg, &key)
	if !Verify(&tag, msg, &key) {
		t.Errorf("valid tag did not verify")
	}

	tag[0] ^= 0x01
	if Verify(&tag, msg, &key) {
		t.Errorf("corrupt tag verified")
	}
	tag[0] ^= 0x01
	if Verify(&tag, append(msg, '!'), &key) {
		t.Errorf("tag verified against a different message")
	}
}

// Random keys and messages must agree with the golang.org/x/crypto
// implementation.
func TestVsXCrypto(t *testing.T) {
	for i := 0; i < 256; i++ {
		var key [KeySize]byte
		if _, err := rand.Read(key[:]); err != nil {
			t.Fatalf("rand.Read failed: %v", err)
		}
		msg := make([]byte, i*5)
		if _, err := rand.Read(msg); err != nil {
			t.Fatalf("rand.Read failed: %v", err)
		}

		var got, want [Size]byte
		Sum(&got, msg, &key)
		xpoly1305.Sum(&want, msg, &key)
		if !bytes.Equal(got[:], want[:]) {
			t.Errorf("iteration %d: tag differs from golang.org/x/crypto", i)
		}
	}
}

func TestClear(t *testing.T) {
	st, err := New(mustUnhex(t, "85d6be7857556d337f4452fe42d506a80103808afb0db2fd4abff6af4149f51b"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	st.Write([]byte("sensitive"))
	st.Clear()

	for i := range st.r {
		if st.r[i] != 0 {
			t.Fatalf("r not zeroed after Clear")
		}
	}
	for i := range st.h {
		if st.h[i] != 0 {
			t.Fatalf("h not zeroed after Clear")
		}
	}
	for i := range st.pad {
		if st.pad[i] != 0 {
			t.Fatalf("pad not zeroed after Clear")
		}
	}
}

func benchmarkSum(b *testing.B, sz int) {
	var key [KeySize]byte
	var tag [Size]byte
	msg := make([]byte, sz)
	b.SetBytes(int64(sz))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sum(&tag, msg, &key)
	}
}

func BenchmarkSum64(b *testing.B)    { benchmarkSum(b, 64) }
func BenchmarkSum1024(b *testing.B)  { benchmarkSum(b, 1024) }
func BenchmarkSum65536(b *testing.B) { benchmarkSum(b, 65536) }
