// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ZMember is one (member, score) pair, used by EncodeZSet/DecodeZSet.
type ZMember struct {
	Member []byte
	Score  float64
}

// Codec implements the compact self-describing binary encoding spec.md §3
// mandates for stream entry payloads and §4.5 mandates for history
// snapshots: a length-prefixed sequence of length-prefixed byte strings,
// so every encoding is self-terminating and round-trips exactly.

// EncodeFields encodes a field→value map (hash snapshots, stream
// payloads) as: uint32 count, then per entry uint32 keyLen, key bytes,
// uint32 valLen, val bytes.
func EncodeFields(fields map[string][]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(fields)))
	for k, v := range fields {
		buf = appendLenPrefixed(buf, []byte(k))
		buf = appendLenPrefixed(buf, v)
	}
	return buf
}

// DecodeFields reverses EncodeFields.
func DecodeFields(data []byte) (map[string][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("storage: truncated field map")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	out := make(map[string][]byte, count)
	for i := uint32(0); i < count; i++ {
		k, rest, err := readLenPrefixed(data)
		if err != nil {
			return nil, err
		}
		v, rest2, err := readLenPrefixed(rest)
		if err != nil {
			return nil, err
		}
		out[string(k)] = v
		data = rest2
	}
	return out, nil
}

// EncodeList encodes an ordered sequence of byte strings (list/set
// snapshots): uint32 count, then per entry a length-prefixed value.
func EncodeList(values [][]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(values)))
	for _, v := range values {
		buf = appendLenPrefixed(buf, v)
	}
	return buf
}

// DecodeList reverses EncodeList.
func DecodeList(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("storage: truncated list")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		v, rest, err := readLenPrefixed(data)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		data = rest
	}
	return out, nil
}

// EncodeZSet encodes a sorted-set snapshot: uint32 count, then per entry
// a length-prefixed member followed by an 8-byte big-endian IEEE-754
// score.
func EncodeZSet(members []ZMember) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(members)))
	for _, m := range members {
		buf = appendLenPrefixed(buf, m.Member)
		scoreBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(scoreBuf, math.Float64bits(m.Score))
		buf = append(buf, scoreBuf...)
	}
	return buf
}

// DecodeZSet reverses EncodeZSet.
func DecodeZSet(data []byte) ([]ZMember, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("storage: truncated zset")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	out := make([]ZMember, 0, count)
	for i := uint32(0); i < count; i++ {
		member, rest, err := readLenPrefixed(data)
		if err != nil {
			return nil, err
		}
		if len(rest) < 8 {
			return nil, fmt.Errorf("storage: truncated zset score")
		}
		score := math.Float64frombits(binary.BigEndian.Uint64(rest[:8]))
		out = append(out, ZMember{Member: member, Score: score})
		data = rest[8:]
	}
	return out, nil
}

func appendLenPrefixed(buf, v []byte) []byte {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(v)))
	buf = append(buf, lenBuf...)
	buf = append(buf, v...)
	return buf
}

func readLenPrefixed(data []byte) (value, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("storage: truncated length prefix")
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, fmt.Errorf("storage: truncated value")
	}
	return data[:n], data[n:], nil
}
