package game

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strconv"
	"strings"
)

// ClearList removes duplicates and zero entries from a player list,
// preserving first occurrence order.
func ClearList(players []uint) []uint {
	seen := make(map[uint]struct{}, len(players))
	result := make([]uint, 0, len(players))
	for _, player := range players {
		if player == 0 {
			continue
		}
		if _, ok := seen[player]; ok {
			continue
		}
		seen[player] = struct{}{}
		result = append(result, player)
	}
	return result
}

// GroupID derives a 63-bit identifier from a player set. It is independent
// of input order, so two matches with the same players always collide.
// Used for duplicate-match detection and chat grouping.
func GroupID(players []uint) int64 {
	sorted := make([]uint, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, player := range sorted {
		parts[i] = strconv.FormatUint(uint64(player), 10)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ",")))
	value := binary.BigEndian.Uint64(sum[len(sum)-8:])
	return int64(value & 0x7fffffffffffffff)
}

func sortedPlayerIDs[T any](m map[uint]T) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
