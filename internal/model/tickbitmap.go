package model

import (
	"math/bits"
	"sort"
	"time"
)

const bitmapWordSize = 64

// TickBitmap is a sparse bit index over tick indices for one pool: bit i is
// set iff tick i is initialized. Kept in sync with Tick.Initialized by
// callers, not automatically.
type TickBitmap struct {
	Pair      string           `json:"pair"`
	Words     map[int32]uint64 `json:"words"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewTickBitmap(pair string, now time.Time) *TickBitmap {
	return &TickBitmap{
		Pair:      pair,
		Words:     make(map[int32]uint64),
		UpdatedAt: now,
	}
}

func wordBitOf(index int32) (int32, uint) {
	word := index / bitmapWordSize
	if index < 0 && index%bitmapWordSize != 0 {
		word-- // round towards negative infinity
	}
	return word, uint(index - word*bitmapWordSize)
}

func (b *TickBitmap) IsSet(index int32) bool {
	word, bit := wordBitOf(index)
	return b.Words[word]&(1<<bit) != 0
}

// FlipBit updates the bit for a tick whose initialized state changed. It is
// a no-op unless flipped is true and the stored bit actually differs from
// initializedAfter.
func (b *TickBitmap) FlipBit(index int32, flipped, initializedAfter bool, now time.Time) {
	if !flipped {
		return
	}
	word, bit := wordBitOf(index)
	mask := uint64(1) << bit
	set := b.Words[word]&mask != 0

	switch {
	case initializedAfter && !set:
		b.Words[word] |= mask
	case !initializedAfter && set:
		b.Words[word] &^= mask
		if b.Words[word] == 0 {
			delete(b.Words, word)
		}
	default:
		return
	}
	b.UpdatedAt = now
}

// NextSetBit returns the lowest set bit at or after index, scanning word by
// word. ok is false when no initialized tick exists at or above index.
func (b *TickBitmap) NextSetBit(index int32) (int32, bool) {
	fromWord, fromBit := wordBitOf(index)
	for _, word := range b.sortedWords() {
		if word < fromWord {
			continue
		}
		value := b.Words[word]
		if word == fromWord {
			value &= ^uint64(0) << fromBit
		}
		if value == 0 {
			continue
		}
		return word*bitmapWordSize + int32(bits.TrailingZeros64(value)), true
	}
	return 0, false
}

// PrevSetBit returns the highest set bit at or before index. ok is false
// when no initialized tick exists at or below index.
func (b *TickBitmap) PrevSetBit(index int32) (int32, bool) {
	fromWord, fromBit := wordBitOf(index)
	words := b.sortedWords()
	for i := len(words) - 1; i >= 0; i-- {
		word := words[i]
		if word > fromWord {
			continue
		}
		value := b.Words[word]
		if word == fromWord && fromBit < bitmapWordSize-1 {
			value &= (uint64(1) << (fromBit + 1)) - 1
		}
		if value == 0 {
			continue
		}
		return word*bitmapWordSize + int32(bitmapWordSize-1-bits.LeadingZeros64(value)), true
	}
	return 0, false
}

func (b *TickBitmap) sortedWords() []int32 {
	words := make([]int32, 0, len(b.Words))
	for word := range b.Words {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool { return words[i] < words[j] })
	return words
}

func (b *TickBitmap) Clone() *TickBitmap {
	if b == nil {
		return nil
	}
	c := *b
	c.Words = make(map[int32]uint64, len(b.Words))
	for word, value := range b.Words {
		c.Words[word] = value
	}
	return &c
}
