package broker

import "hash/fnv"

// PartitionForKey — детерминированный выбор партиции по ключу:
// FNV-1a 32 бита, приведённый к неотрицательному, по модулю числа партиций.
func PartitionForKey(key []byte, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(key)
	return int(h.Sum32()&0x7fffffff) % partitions
}
