package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActionLogDropsOldestAtCapacity(t *testing.T) {
	log := NewActionLog(3)

	for i := 0; i < 5; i++ {
		log.Appendf("entry %d", i)
	}

	entries := log.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "entry 2", entries[0].Message)
	require.Equal(t, "entry 4", entries[2].Message)
}

func TestActionLogEntriesReturnsCopy(t *testing.T) {
	log := NewActionLog(10)
	log.Append("first")

	entries := log.Entries()
	entries[0].Message = "mutated"

	require.Equal(t, "first", log.Entries()[0].Message)
}

func TestActionLogNilReceiverIsSafe(t *testing.T) {
	var log *ActionLog

	require.NotPanics(t, func() {
		log.Append("dropped")
		log.Appendf("dropped %d", 1)
	})
	require.Nil(t, log.Entries())
	require.Zero(t, log.Len())
}

func TestActionLogConcurrentAppend(t *testing.T) {
	log := NewActionLog(50)
	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				log.Append(fmt.Sprintf("g%d-%d", g, i))
			}
		}(g)
	}

	for g := 0; g < 4; g++ {
		<-done
	}

	require.Equal(t, 50, log.Len())
}
