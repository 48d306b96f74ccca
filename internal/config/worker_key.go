package config

type WorkerKeyStruct struct {
	PersistSemestersQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistSemestersQueue: "persist_semesters_queue",
}
