package profile

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Report is the diagnostic record of a single resolution. It never holds
// secret values; the caller decides how and whether to emit it.
type Report struct {
	Environment Environment `json:"environment" yaml:"environment"`
	Tier        Tier        `json:"tier,omitempty" yaml:"tier,omitempty"`
	Dialect     Dialect     `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Host        string      `json:"host,omitempty" yaml:"host,omitempty"`
	Database    string      `json:"database,omitempty" yaml:"database,omitempty"`
	StoragePath string      `json:"storage_path,omitempty" yaml:"storage_path,omitempty"`
	PasswordSet bool        `json:"password_set" yaml:"password_set"`
	Events      []Event     `json:"events,omitempty" yaml:"events,omitempty"`
}

type Event struct {
	Level   zapcore.Level `json:"level" yaml:"level"`
	Message string        `json:"message" yaml:"message"`
	Fields  []Field       `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func (r *Report) debug(msg string, kv ...string) { r.add(zapcore.DebugLevel, msg, kv) }
func (r *Report) info(msg string, kv ...string)  { r.add(zapcore.InfoLevel, msg, kv) }
func (r *Report) warn(msg string, kv ...string)  { r.add(zapcore.WarnLevel, msg, kv) }

func (r *Report) add(level zapcore.Level, msg string, kv []string) {
	ev := Event{Level: level, Message: msg}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Fields = append(ev.Fields, Field{Key: kv[i], Value: kv[i+1]})
	}
	r.Events = append(r.Events, ev)
}

func (r *Report) complete(tier Tier, p Profile) {
	r.Tier = tier
	r.Dialect = p.Dialect
	r.Host = p.Host
	r.Database = p.Database
	r.StoragePath = p.StoragePath
	r.PasswordSet = p.PasswordSet()
}

// Warnings returns the events at warn level or above.
func (r Report) Warnings() []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Level >= zapcore.WarnLevel {
			out = append(out, ev)
		}
	}
	return out
}

// Log writes every recorded event at its level, followed by a summary line
// when resolution completed.
func (r Report) Log(logger *zap.Logger) {
	logger = logger.With(zap.String("environment", string(r.Environment)))
	for _, ev := range r.Events {
		fields := make([]zap.Field, 0, len(ev.Fields))
		for _, f := range ev.Fields {
			fields = append(fields, zap.String(f.Key, f.Value))
		}
		if ce := logger.Check(ev.Level, ev.Message); ce != nil {
			ce.Write(fields...)
		}
	}

	if r.Tier == "" {
		return
	}
	logger.Info("Database profile resolved",
		zap.String("tier", string(r.Tier)),
		zap.String("dialect", string(r.Dialect)),
		zap.String("host", r.Host),
		zap.String("database", r.Database),
		zap.String("storage", r.StoragePath),
		zap.Bool("password_set", r.PasswordSet))
}

func (r Report) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("environment", string(r.Environment))
	enc.AddString("tier", string(r.Tier))
	enc.AddString("dialect", string(r.Dialect))
	enc.AddString("host", r.Host)
	enc.AddString("database", r.Database)
	enc.AddString("storage", r.StoragePath)
	enc.AddBool("password_set", r.PasswordSet)
	enc.AddInt("events", len(r.Events))
	return nil
}
