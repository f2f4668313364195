/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package hashutil is the keyed-hash oracle used to map raw input values
// onto the 64-bit hash domain the theta sketch operates on.
//
// It hashes the typed backing array directly (longs, ints, bytes),
// not a serialized byte string, so it must reproduce MurmurHash3_x64_128's
// block mixing over those native element sizes bit-for-bit. A generic
// byte-string murmur3 package cannot do that: it would first have to
// serialize the array to bytes in exactly the right layout, at which point
// it is no longer "generic". This is why the hash oracle is hand-rolled
// here instead of built on a library.
package hashutil

const (
	c1 = 0x87c37b91114253d5
	c2 = 0x4cf5ad432745937f
)

type state128 struct {
	h1 uint64
	h2 uint64
}

// HashBytes computes the 128-bit MurmurHash3 of a byte slice, keyed by seed,
// and returns the low 64 bits (h1) — the convention the format uses
// everywhere a single 64-bit hash is required.
func HashBytes(data []byte, seed uint64) uint64 {
	h1, _ := hashByteArr(data, 0, len(data), seed)
	return h1
}

// HashInt64 computes the 128-bit MurmurHash3 of a single int64 value,
// mixed in as a one-element long array the way the reference implementation
// mixes a long[] of length 1, and returns the low 64 bits.
func HashInt64(value int64, seed uint64) uint64 {
	h1, _ := hashInt64Slice([]int64{value}, 0, 1, seed)
	return h1
}

// HashInt32 computes the 128-bit MurmurHash3 of a single int32 value, mixed
// in as an int[] of length 1, and returns the low 64 bits.
func HashInt32(value int32, seed uint64) uint64 {
	h1, _ := hashInt32Slice([]int32{value}, 0, 1, seed)
	return h1
}

// HashString computes the 128-bit MurmurHash3 of a UTF-8 string's raw
// bytes and returns the low 64 bits.
func HashString(value string, seed uint64) uint64 {
	h1, _ := hashByteArr([]byte(value), 0, len(value), seed)
	return h1
}

func hashByteArr(key []byte, offsetBytes, lengthBytes int, seed uint64) (uint64, uint64) {
	st := state128{h1: seed, h2: seed}

	nblocks := lengthBytes >> 4 // 16 bytes per 128-bit block
	for i := 0; i < nblocks; i++ {
		k1 := getUint64(key, offsetBytes+(i<<4), 8)
		k2 := getUint64(key, offsetBytes+(i<<4)+8, 8)
		st.blockMix(k1, k2)
	}

	tail := nblocks << 4
	rem := lengthBytes - tail

	var k1, k2 uint64
	if rem > 8 {
		k1 = getUint64(key, offsetBytes+tail, 8)
		k2 = getUint64(key, offsetBytes+tail+8, rem-8)
	} else if rem != 0 {
		k1 = getUint64(key, offsetBytes+tail, rem)
	}

	return st.finalMix(k1, k2, uint64(lengthBytes))
}

func hashInt32Slice(key []int32, offsetInts, lengthInts int, seed uint64) (uint64, uint64) {
	st := state128{h1: seed, h2: seed}

	nblocks := lengthInts >> 2 // 4 ints per 128-bit block
	for i := 0; i < nblocks; i++ {
		k1 := packInt32Pair(key[offsetInts+(i<<2)], key[offsetInts+(i<<2)+1])
		k2 := packInt32Pair(key[offsetInts+(i<<2)+2], key[offsetInts+(i<<2)+3])
		st.blockMix(k1, k2)
	}

	tail := nblocks << 2
	rem := lengthInts - tail

	var k1, k2 uint64
	switch {
	case rem > 2:
		k1 = packInt32Pair(key[offsetInts+tail], key[offsetInts+tail+1])
		if rem == 3 {
			k2 = uint64(uint32(key[offsetInts+tail+2]))
		}
	case rem == 2:
		k1 = packInt32Pair(key[offsetInts+tail], key[offsetInts+tail+1])
	case rem == 1:
		k1 = uint64(uint32(key[offsetInts+tail]))
	}

	return st.finalMix(k1, k2, uint64(lengthInts)<<2)
}

func packInt32Pair(lo, hi int32) uint64 {
	return uint64(uint32(lo)) | (uint64(uint32(hi)) << 32)
}

func hashInt64Slice(key []int64, offsetLongs, lengthLongs int, seed uint64) (uint64, uint64) {
	st := state128{h1: seed, h2: seed}

	nblocks := lengthLongs >> 1 // 2 longs per 128-bit block
	for i := 0; i < nblocks; i++ {
		k1 := uint64(key[offsetLongs+(i<<1)])
		k2 := uint64(key[offsetLongs+(i<<1)+1])
		st.blockMix(k1, k2)
	}

	tail := nblocks << 1
	rem := lengthLongs - tail

	var k1 uint64
	if rem != 0 {
		k1 = uint64(key[offsetLongs+tail])
	}

	return st.finalMix(k1, 0, uint64(lengthLongs)<<3)
}

func getUint64(b []byte, index, rem int) uint64 {
	var out uint64
	for i := rem - 1; i >= 0; i-- {
		out ^= uint64(b[index+i]) << uint(i*8)
	}
	return out
}

func mixK1(k1 uint64) uint64 {
	k1 *= c1
	k1 = (k1 << 31) | (k1 >> (64 - 31))
	k1 *= c2
	return k1
}

func mixK2(k2 uint64) uint64 {
	k2 *= c2
	k2 = (k2 << 33) | (k2 >> (64 - 33))
	k2 *= c1
	return k2
}

func finalMix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

func (s *state128) blockMix(k1, k2 uint64) {
	s.h1 ^= mixK1(k1)
	s.h1 = (s.h1 << 27) | (s.h1 >> (64 - 27))
	s.h1 += s.h2
	s.h1 = s.h1*5 + 0x52dce729

	s.h2 ^= mixK2(k2)
	s.h2 = (s.h2 << 31) | (s.h2 >> (64 - 31))
	s.h2 += s.h1
	s.h2 = s.h2*5 + 0x38495ab5
}

func (s *state128) finalMix(k1, k2, inputLengthBytes uint64) (uint64, uint64) {
	s.h1 ^= mixK1(k1)
	s.h2 ^= mixK2(k2)
	s.h1 ^= inputLengthBytes
	s.h2 ^= inputLengthBytes
	s.h1 += s.h2
	s.h2 += s.h1
	s.h1 = finalMix64(s.h1)
	s.h2 = finalMix64(s.h2)
	s.h1 += s.h2
	s.h2 += s.h1
	return s.h1, s.h2
}
