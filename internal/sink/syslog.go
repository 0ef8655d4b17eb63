package sink

import (
	"log/syslog"

	"go.uber.org/zap"
)

// SyslogSink writes the serialized JSON line at LOG_ERR/LOG_USER, tagged
// with the agent process name, over one of three transports (§4.7, §6).
// A write failure is logged and the worker continues — syslog delivery is
// best-effort.
type SyslogSink struct {
	*boundedQueue
	writer *syslog.Writer
	logger *zap.SugaredLogger
}

// NewSyslogLocal dials the local syslog daemon.
func NewSyslogLocal(tag string, capacity int, logger *zap.SugaredLogger) (*SyslogSink, error) {
	w, err := syslog.New(syslog.LOG_ERR|syslog.LOG_USER, tag)
	if err != nil {
		return nil, err
	}
	return newSyslogSink(w, capacity, logger), nil
}

// NewSyslogTCP dials a remote syslog daemon over TCP.
func NewSyslogTCP(addr, tag string, capacity int, logger *zap.SugaredLogger) (*SyslogSink, error) {
	w, err := syslog.Dial("tcp", addr, syslog.LOG_ERR|syslog.LOG_USER, tag)
	if err != nil {
		return nil, err
	}
	return newSyslogSink(w, capacity, logger), nil
}

// NewSyslogUDP dials a remote syslog daemon over UDP.
func NewSyslogUDP(addr, tag string, capacity int, logger *zap.SugaredLogger) (*SyslogSink, error) {
	w, err := syslog.Dial("udp", addr, syslog.LOG_ERR|syslog.LOG_USER, tag)
	if err != nil {
		return nil, err
	}
	return newSyslogSink(w, capacity, logger), nil
}

func newSyslogSink(w *syslog.Writer, capacity int, logger *zap.SugaredLogger) *SyslogSink {
	return &SyslogSink{
		boundedQueue: newBoundedQueue("syslog", capacity, logger),
		writer:       w,
		logger:       logger,
	}
}

func (s *SyslogSink) Run() {
	for rec := range s.ch {
		if _, err := s.writer.Err(string(rec.JSON)); err != nil {
			s.logger.Errorw("syslog write failed", "error", err)
		}
	}
}
