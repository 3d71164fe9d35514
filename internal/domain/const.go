package domain

const (
	// GENESIS_EVENT_HASH is the previous hash of the first ledger event
	GENESIS_EVENT_HASH = "0x0000000000000000000000000000000000000000000000000000000000000000"

	// Store keys
	PROPERTY_COUNTER_NAME  = "properties"
	EVENT_COUNTER_NAME     = "ledger_events"
	LEDGER_INSTANCE_ID_KEY = "ledger:instance_id"
	RELAY_CURSOR_KEY       = "relay_cursor:ledger_events"

	// First values handed out by the counters
	FIRST_PROPERTY_ID    = 0
	FIRST_EVENT_SEQUENCE = 1

	// Registration field limit in bytes
	MAX_FIELD_LENGTH = 1024
)
