package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Concurrency harness: fires concurrent single-line batch orders for one
// product and checks that successes never exceed what stock allows. Run
// against a server seeded with `initialStock` units of `productID` whose
// supplier threshold one line already clears.
const (
	serverURL     = "http://localhost:8080"
	productID     = "prod-stress"
	lineQuantity  = 1
	initialStock  = 20
	totalRequests = 50
	actorID       = "stress-harness"
	storeID       = "store-1"
)

type batchPayload struct {
	RequestID string `json:"request_id"`
	StoreID   string `json:"store_id"`
	Lines     []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"lines"`
}

func main() {
	client := &http.Client{Timeout: 10 * time.Second}

	var successCount atomic.Int32
	var stockRejects atomic.Int32
	var otherFails atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			payload := batchPayload{
				RequestID: fmt.Sprintf("stress-%d-%d", start.UnixNano(), id),
				StoreID:   storeID,
			}
			payload.Lines = append(payload.Lines, struct {
				ProductID string `json:"product_id"`
				Quantity  int    `json:"quantity"`
			}{ProductID: productID, Quantity: lineQuantity})

			body, _ := json.Marshal(payload)
			req, err := http.NewRequest(http.MethodPost, serverURL+"/api/orders/batch", bytes.NewReader(body))
			if err != nil {
				log.Fatal(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Actor-ID", actorID)

			resp, err := client.Do(req)
			if err != nil {
				otherFails.Add(1)
				return
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				stockRejects.Add(1)
			default:
				otherFails.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	rejected := stockRejects.Load()
	failed := otherFails.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Committed:        %d\n", success)
	fmt.Printf("Stock Rejected:   %d\n", rejected)
	fmt.Printf("Other Failures:   %d\n", failed)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	maxCommits := int32(initialStock / lineQuantity)
	if success > maxCommits {
		fmt.Printf("FAIL: %d commits exceed available stock (%d units)\n", success, initialStock)
		return
	}
	if success == maxCommits && rejected == int32(totalRequests)-maxCommits {
		fmt.Printf("PASS: exactly %d orders committed, %d rejected\n", success, rejected)
	} else {
		fmt.Printf("PARTIAL: %d committed, %d rejected, %d failed\n", success, rejected, failed)
	}
}
