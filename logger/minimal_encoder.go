package logger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorTime   = "\x1b[38;5;107m"
	colorName   = "\x1b[38;5;208m"
	colorKey    = "\x1b[38;5;109m"
	colorWarn   = "\x1b[38;5;179m"
	colorError  = "\x1b[38;5;167m"
	colorDebug  = "\x1b[38;5;245m"
	colorBgWarn = "\x1b[48;5;58m"
	colorBgErr  = "\x1b[48;5;52m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder is a compact console encoder.
// Format: "13:04:35  round  Round finished  processor=builder claimed=true"
type minimalEncoder struct {
	// fields accumulated through With()
	context []zapcore.Field
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(enc.context))
	copy(ctx, enc.context)
	return &minimalEncoder{context: ctx}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	if label := levelLabel(ent.Level); label != "" {
		final.AppendString("  ")
		final.AppendString(label)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorName)
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	all := make([]zapcore.Field, 0, len(enc.context)+len(fields))
	all = append(all, enc.context...)
	all = append(all, fields...)
	if kv := encodeFields(all); kv != "" {
		final.AppendString("  ")
		final.AppendString(kv)
	}

	final.AppendString("\n")
	return final, nil
}

func levelLabel(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorDebug + "DEBUG" + colorReset
	case zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBold + colorBgWarn + colorWarn + "WARN" + colorReset
	default:
		return colorBold + colorBgErr + colorError + level.CapitalString() + colorReset
	}
}

// encodeFields renders every field as key=value; nothing is dropped.
func encodeFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	m := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(m)
	}

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	// round and processor first, then alphabetical
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := fieldPriority(keys[i]), fieldPriority(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s%s%s=%v", colorKey, k, colorReset, m.Fields[k]))
	}
	return strings.Join(parts, " ")
}

func fieldPriority(key string) int {
	switch key {
	case FieldRoundID:
		return 0
	case FieldProcessor:
		return 1
	case FieldElement:
		return 2
	default:
		return 3
	}
}

// The methods below accumulate With() context; zapcore calls them via Field.AddTo.

func (enc *minimalEncoder) addField(f zapcore.Field) { enc.context = append(enc.context, f) }

func (enc *minimalEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.ArrayMarshalerType, Interface: arr})
	return nil
}

func (enc *minimalEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.ObjectMarshalerType, Interface: obj})
	return nil
}

func (enc *minimalEncoder) AddBinary(key string, v []byte) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.BinaryType, Interface: v})
}

func (enc *minimalEncoder) AddByteString(key string, v []byte) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.ByteStringType, Interface: v})
}

func (enc *minimalEncoder) AddBool(key string, v bool) {
	var i int64
	if v {
		i = 1
	}
	enc.addField(zapcore.Field{Key: key, Type: zapcore.BoolType, Integer: i})
}

func (enc *minimalEncoder) AddComplex128(key string, v complex128) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddComplex64(key string, v complex64) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddDuration(key string, v time.Duration) { enc.AddString(key, v.String()) }
func (enc *minimalEncoder) AddTime(key string, v time.Time) {
	enc.AddString(key, v.Format(time.RFC3339))
}
func (enc *minimalEncoder) AddFloat64(key string, v float64) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddFloat32(key string, v float32) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddInt(key string, v int) { enc.AddInt64(key, int64(v)) }
func (enc *minimalEncoder) AddInt64(key string, v int64) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.Int64Type, Integer: v})
}
func (enc *minimalEncoder) AddInt32(key string, v int32) { enc.AddInt64(key, int64(v)) }
func (enc *minimalEncoder) AddInt16(key string, v int16) { enc.AddInt64(key, int64(v)) }
func (enc *minimalEncoder) AddInt8(key string, v int8) { enc.AddInt64(key, int64(v)) }
func (enc *minimalEncoder) AddString(key, v string) {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.StringType, String: v})
}
func (enc *minimalEncoder) AddUint(key string, v uint) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddUint64(key string, v uint64) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddUint32(key string, v uint32) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddUint16(key string, v uint16) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddUint8(key string, v uint8) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddUintptr(key string, v uintptr) { enc.AddReflected(key, v) }
func (enc *minimalEncoder) AddReflected(key string, v interface{}) error {
	enc.addField(zapcore.Field{Key: key, Type: zapcore.ReflectType, Interface: v})
	return nil
}
func (enc *minimalEncoder) OpenNamespace(key string) {}
