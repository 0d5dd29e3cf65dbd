package config

type WorkerKeyStruct struct {
	PersistEventsQueue  string
	PersistResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistEventsQueue:  "persist_events_queue",
	PersistResultsQueue: "persist_results_queue",
}
