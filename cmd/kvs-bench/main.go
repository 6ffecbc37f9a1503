// Command kvs-bench runs ad hoc load and integrity checks against the
// log-structured engine directly (bypassing the facade and wire
// protocol), for the same scenarios the teacher's manual benchmark
// tool exercised: bulk sequential writes, overwrite-in-place, and
// randomized read-back integrity.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jassi-singh/kvs/internal/engine"
)

func main() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	slog.SetDefault(slog.New(handler))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "100k-write":
		test100kWrite()
	case "overlapping":
		testOverlappingKey()
	case "integrity":
		testIntegrity()
	default:
		fmt.Printf("Unknown test: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: kvs-bench <test-name>")
	fmt.Println("\nAvailable tests:")
	fmt.Println("  100k-write  - Write 100,000 unique keys and measure performance")
	fmt.Println("  overlapping - Test overlapping key writes (key_1 with value_A, then value_B)")
	fmt.Println("  integrity   - Write 100k keys, then randomly read 1,000 to verify integrity")
}

func openBenchStore() *engine.KVStore {
	dir, err := os.MkdirTemp("", "kvs-bench-")
	if err != nil {
		log.Fatalf("Failed to create scratch directory: %v", err)
	}
	store, err := engine.Open(dir, engine.DefaultCompactionThreshold)
	if err != nil {
		log.Fatalf("Failed to open engine at %s: %v", dir, err)
	}
	return store
}

func test100kWrite() {
	fmt.Println(strings.Repeat("=", 61))
	fmt.Println("Test 1: 100k Write Test (Speed & Integrity)")
	fmt.Println(strings.Repeat("=", 61))

	store := openBenchStore()
	defer store.Close()

	const totalKeys = 100000
	start := time.Now()
	errs := 0

	fmt.Printf("Writing %d keys...\n", totalKeys)
	for i := 0; i < totalKeys; i++ {
		key := fmt.Sprintf("key_%d", i)
		value := fmt.Sprintf("value_%d", i)
		if err := store.Set(key, value); err != nil {
			errs++
			if errs <= 10 {
				fmt.Printf("ERROR: Failed to set %s: %v\n", key, err)
			}
		}
		if (i+1)%10000 == 0 {
			elapsed := time.Since(start)
			fmt.Printf("Progress: %d/%d keys written (%.2f keys/sec)\n", i+1, totalKeys, float64(i+1)/elapsed.Seconds())
		}
	}

	elapsed := time.Since(start)
	fmt.Println(strings.Repeat("-", 61))
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Write rate: %.2f keys/second\n", float64(totalKeys)/elapsed.Seconds())
	fmt.Printf("Errors: %d\n", errs)

	if errs > 0 {
		fmt.Printf("\nTEST FAILED: %d errors occurred\n", errs)
		os.Exit(1)
	}

	fmt.Printf("Live keys in index: %d\n", store.Len())
	fmt.Println("\nTEST PASSED: all 100,000 keys written successfully")
}

func testOverlappingKey() {
	fmt.Println(strings.Repeat("=", 61))
	fmt.Println("Test 2: Overlapping Key Test")
	fmt.Println(strings.Repeat("=", 61))

	store := openBenchStore()
	defer store.Close()

	key, valueA, valueB := "key_1", "value_A", "value_B"

	fmt.Printf("Step 1: setting %s = %q\n", key, valueA)
	if err := store.Set(key, valueA); err != nil {
		log.Fatalf("Failed to set %s = %s: %v", key, valueA, err)
	}

	fmt.Printf("Step 2: setting %s = %q (overwriting)\n", key, valueB)
	if err := store.Set(key, valueB); err != nil {
		log.Fatalf("Failed to set %s = %s: %v", key, valueB, err)
	}

	fmt.Printf("Step 3: getting %s\n", key)
	value, ok, err := store.Get(key)
	if err != nil {
		log.Fatalf("Failed to get %s: %v", key, err)
	}
	fmt.Printf("  Retrieved: (%q, %v)\n", value, ok)

	if !ok || value != valueB {
		fmt.Printf("\nTEST FAILED: expected %q, got (%q, %v)\n", valueB, value, ok)
		os.Exit(1)
	}
	if store.Len() != 1 {
		fmt.Printf("WARNING: index has %d keys, expected 1\n", store.Len())
	}

	fmt.Println("\nTEST PASSED: latest value correctly returned")
}

func testIntegrity() {
	fmt.Println(strings.Repeat("=", 61))
	fmt.Println("Test 3: Integrity Test (Read-Back)")
	fmt.Println(strings.Repeat("=", 61))

	store := openBenchStore()
	defer store.Close()

	const totalKeys = 100000
	fmt.Printf("Step 1: writing %d keys...\n", totalKeys)
	start := time.Now()
	for i := 0; i < totalKeys; i++ {
		key := fmt.Sprintf("key_%d", i)
		value := fmt.Sprintf("value_%d", i)
		if err := store.Set(key, value); err != nil {
			log.Fatalf("Failed to set %s: %v", key, err)
		}
	}
	fmt.Printf("  Write completed in %v\n", time.Since(start))

	fmt.Println("\nStep 2: randomly reading 1,000 keys to verify integrity...")
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	readStart := time.Now()
	errs := 0
	for i := 0; i < 1000; i++ {
		idx := rnd.Intn(totalKeys)
		key := fmt.Sprintf("key_%d", idx)
		want := fmt.Sprintf("value_%d", idx)

		got, ok, err := store.Get(key)
		if err != nil {
			errs++
			if errs <= 10 {
				fmt.Printf("  ERROR: Get(%s) error = %v\n", key, err)
			}
			continue
		}
		if !ok || got != want {
			errs++
			if errs <= 10 {
				fmt.Printf("  ERROR: Get(%s) = (%q, %v), want (%q, true)\n", key, got, ok, want)
			}
		}
	}
	readElapsed := time.Since(readStart)
	fmt.Printf("  Read completed in %v (%.2f keys/second)\n", readElapsed, 1000.0/readElapsed.Seconds())

	fmt.Println(strings.Repeat("-", 61))
	fmt.Printf("Errors: %d\n", errs)
	if errs > 0 {
		fmt.Printf("\nTEST FAILED: %d errors occurred\n", errs)
		os.Exit(1)
	}
	fmt.Println("\nTEST PASSED: all 1,000 random reads returned correct values")
}
