// Package harness runs synchronizer scenarios and checks the batch feed.
//
// A scenario seeds an in-memory store, drives a real synchronizer through a
// sequence of steps and validates the resulting batch trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	max_rows: 200
//	visible:
//	  transaction: ["Sent to"]
//	store:
//	  addresses:
//	    - { address: SaBc, type: R, label: savings }
//	steps:
//	  - full: transaction
//	  - range: { kind: address, start: 0, end: 4 }
//	  - insert:
//	      transactions:
//	        - { txid: a1, type: recv_with_address, time: 1700000000, amount: 5 }
//	  - visible: { kind: transaction, labels: ["*"] }
//	  - bulk: true
//	assertions:
//	  - type: batch_keys
//	    batch: 0
//	    keys: [a1]
//	  - type: final_state
//	    table: addresses
//	    where: { address: SaBc }
//	    expect: { label: savings }
//
// # Assertion Types
//
//   - batch_count: number of batches, optionally of one kind
//   - batch_keys: record keys of one batch, in order
//   - batch_reset: reset flag of one batch
//   - record_field: one field value of one record
//   - final_state: queries a store table and verifies expected values
//
// # Deterministic Testing
//
// Seeding is a bulk load, so no batch is produced before the first step.
// Store notifications a step causes are routed after the step's writes
// complete, and each step waits for the synchronizer to go idle before the
// next one starts. Within a step, batches are grouped by kind. Golden
// snapshots omit batch ids and sequence numbers.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/address_book.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
