package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry        = (*ProviderRegistry)(nil)
	_ AccountService  = (*Service)(nil)
	_ RecordStore     = (*MemoryRecordStore)(nil)
	_ UsernameIndex   = (*MemoryRecordStore)(nil)
	_ NonceGenerator  = AlphanumericNonceGenerator{}
	_ MetricsRecorder = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
