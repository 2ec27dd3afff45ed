package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire class names used by the backend.
const (
	wireScalar         = "agal"
	wireIdentifier     = "id"
	wireParams         = "params"
	wireParam          = "param"
	wireInstance       = "instancia"
	wireReturn         = "ret"
	wireConstructor    = "constructor"
	wireElement        = "item"
	wirePromise        = "promesa"
	wireMember         = "member"
	wireUnion          = "multiple"
	wireCall           = "llamada"
	wireFunction       = "fn"
	wireConstructorFn  = "constructor_fn"
	wireModule         = "mod"
	wireClass          = "clase"
	wireScalarRef      = "referencia"
	wireScalarList     = "lista"
	wireScalarIterable = "iterable"
	wireScalarString   = "cadena"
)

type wireHead struct {
	Class string `json:"class"`
	Type  string `json:"type"`
}

type wireValue struct {
	Val json.RawMessage `json:"val"`
}

type wireString struct {
	Val *string `json:"val"`
}

type wireIdent struct {
	Location Location `json:"location"`
}

type wireParamIndex struct {
	Index int `json:"index"`
}

type wireInstanceBody struct {
	Name  string                     `json:"name"`
	Props map[string]json.RawMessage `json:"props"`
}

type wireMemberBody struct {
	Object     json.RawMessage `json:"object"`
	Member     json.RawMessage `json:"member"`
	IsInstance bool            `json:"is_instance"`
}

type wireUnionBody struct {
	Val []json.RawMessage `json:"val"`
}

type wireCallBody struct {
	Callee json.RawMessage   `json:"callee"`
	Args   []json.RawMessage `json:"args"`
}

type wireFunctionBody struct {
	Params []json.RawMessage `json:"params"`
	Ret    json.RawMessage   `json:"ret"`
}

type wireModuleBody struct {
	Path string `json:"path"`
}

type wireClassBody struct {
	Name          string                     `json:"name"`
	StaticProps   map[string]json.RawMessage `json:"static_props"`
	InstanceProps map[string]json.RawMessage `json:"instance_props"`
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// DecodeDataType parses the backend's JSON form of a type. JSON null and an
// empty payload decode to nil. Unknown classes decode to *Opaque.
func DecodeDataType(raw []byte) (DataType, error) {
	if isNull(raw) {
		return nil, nil
	}
	var head wireHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode data type: %w", err)
	}

	switch head.Class {
	case wireScalar:
		return decodeScalar(head.Type, raw)
	case wireIdentifier:
		var body wireIdent
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode identifier: %w", err)
		}
		return &Identifier{Location: body.Location}, nil
	case wireParams:
		return &Params{}, nil
	case wireParam:
		var body wireParamIndex
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode param: %w", err)
		}
		return &Param{Index: body.Index}, nil
	case wireInstance:
		var body wireInstanceBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode instance: %w", err)
		}
		props, err := decodeProps(body.Props)
		if err != nil {
			return nil, err
		}
		return &Instance{Name: body.Name, Properties: props}, nil
	case wireReturn, wireConstructor, wireElement, wirePromise:
		inner, err := decodeVal(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Class, err)
		}
		switch head.Class {
		case wireReturn:
			return &Return{Value: inner}, nil
		case wireConstructor:
			return &ConstructorValue{Value: inner}, nil
		case wireElement:
			return &Element{Value: inner}, nil
		default:
			return &Promise{Value: inner}, nil
		}
	case wireMember:
		var body wireMemberBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode member: %w", err)
		}
		object, err := DecodeDataType(body.Object)
		if err != nil {
			return nil, err
		}
		member, err := DecodeDataType(body.Member)
		if err != nil {
			return nil, err
		}
		return &Member{Object: object, Member: member, IsInstanceAccess: body.IsInstance}, nil
	case wireUnion:
		var body wireUnionBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode union: %w", err)
		}
		alts, err := decodeList(body.Val)
		if err != nil {
			return nil, err
		}
		return &Union{Alternatives: alts}, nil
	case wireCall:
		var body wireCallBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode call: %w", err)
		}
		callee, err := DecodeDataType(body.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeList(body.Args)
		if err != nil {
			return nil, err
		}
		return &Call{Callee: callee, Args: args}, nil
	case wireFunction, wireConstructorFn:
		var body wireFunctionBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Class, err)
		}
		params, err := decodeList(body.Params)
		if err != nil {
			return nil, err
		}
		ret, err := DecodeDataType(body.Ret)
		if err != nil {
			return nil, err
		}
		if head.Class == wireFunction {
			return &Function{Parameters: params, ReturnType: ret}, nil
		}
		return &ConstructorFunction{Parameters: params, ReturnType: ret}, nil
	case wireModule:
		var body wireModuleBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode module: %w", err)
		}
		return &Module{Path: body.Path}, nil
	case wireClass:
		var body wireClassBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode class: %w", err)
		}
		static, err := decodeProps(body.StaticProps)
		if err != nil {
			return nil, err
		}
		instance, err := decodeProps(body.InstanceProps)
		if err != nil {
			return nil, err
		}
		return &Class{Name: body.Name, StaticProperties: static, InstanceProperties: instance}, nil
	}
	return opaque(head.Class, raw), nil
}

func decodeScalar(kind string, raw []byte) (DataType, error) {
	switch kind {
	case wireScalarRef, wireScalarList, wireScalarIterable:
		inner, err := decodeVal(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		switch kind {
		case wireScalarRef:
			return &Reference{Inner: inner}, nil
		case wireScalarList:
			return &List{Inner: inner}, nil
		default:
			return &Iterable{Inner: inner}, nil
		}
	case wireScalarString:
		var body wireString
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode string: %w", err)
		}
		return &String{Value: body.Val}, nil
	}
	if PrimitiveKind(kind).Valid() {
		return &Primitive{Name: PrimitiveKind(kind)}, nil
	}
	return opaque(wireScalar, raw), nil
}

func opaque(class string, raw []byte) *Opaque {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return &Opaque{Class: class, Raw: append([]byte(nil), raw...)}
	}
	return &Opaque{Class: class, Raw: buf.Bytes()}
}

func decodeVal(raw []byte) (DataType, error) {
	var body wireValue
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return DecodeDataType(body.Val)
}

func decodeList(raws []json.RawMessage) ([]DataType, error) {
	out := make([]DataType, 0, len(raws))
	for _, raw := range raws {
		dt, err := DecodeDataType(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}

func decodeProps(raws map[string]json.RawMessage) (map[string]DataType, error) {
	out := make(map[string]DataType, len(raws))
	for name, raw := range raws {
		dt, err := DecodeDataType(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = dt
	}
	return out, nil
}

// EncodeDataType renders dt in the backend's JSON form. Object keys come out
// sorted, so equal trees always encode to equal bytes.
func EncodeDataType(dt DataType) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toWire(dt)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Canonical is the serialized form used for structural equality.
func Canonical(dt DataType) string {
	raw, err := EncodeDataType(dt)
	if err != nil {
		return fmt.Sprintf("!%s:%v", dt.Kind(), err)
	}
	return string(raw)
}

// Equal reports structural equality of two type trees.
func Equal(a, b DataType) bool {
	return Canonical(a) == Canonical(b)
}

func toWire(dt DataType) any {
	if IsNil(dt) {
		return nil
	}
	switch v := dt.(type) {
	case *Primitive:
		return map[string]any{"class": wireScalar, "type": string(v.Name)}
	case *Reference:
		return map[string]any{"class": wireScalar, "type": wireScalarRef, "val": toWire(v.Inner)}
	case *List:
		return map[string]any{"class": wireScalar, "type": wireScalarList, "val": toWire(v.Inner)}
	case *Iterable:
		return map[string]any{"class": wireScalar, "type": wireScalarIterable, "val": toWire(v.Inner)}
	case *String:
		out := map[string]any{"class": wireScalar, "type": wireScalarString}
		if v.Value != nil {
			out["val"] = *v.Value
		}
		return out
	case *Identifier:
		return map[string]any{"class": wireIdentifier, "location": v.Location}
	case *Params:
		return map[string]any{"class": wireParams}
	case *Param:
		return map[string]any{"class": wireParam, "index": v.Index}
	case *Instance:
		return map[string]any{"class": wireInstance, "name": v.Name, "props": propsToWire(v.Properties)}
	case *Return:
		return map[string]any{"class": wireReturn, "val": toWire(v.Value)}
	case *ConstructorValue:
		return map[string]any{"class": wireConstructor, "val": toWire(v.Value)}
	case *Element:
		return map[string]any{"class": wireElement, "val": toWire(v.Value)}
	case *Promise:
		return map[string]any{"class": wirePromise, "val": toWire(v.Value)}
	case *Member:
		return map[string]any{
			"class":       wireMember,
			"object":      toWire(v.Object),
			"member":      toWire(v.Member),
			"is_instance": v.IsInstanceAccess,
		}
	case *Union:
		return map[string]any{"class": wireUnion, "val": listToWire(v.Alternatives)}
	case *Call:
		return map[string]any{"class": wireCall, "callee": toWire(v.Callee), "args": listToWire(v.Args)}
	case *Function:
		return map[string]any{"class": wireFunction, "params": listToWire(v.Parameters), "ret": toWire(v.ReturnType)}
	case *ConstructorFunction:
		return map[string]any{"class": wireConstructorFn, "params": listToWire(v.Parameters), "ret": toWire(v.ReturnType)}
	case *Module:
		return map[string]any{"class": wireModule, "path": v.Path}
	case *Class:
		return map[string]any{
			"class":          wireClass,
			"name":           v.Name,
			"static_props":   propsToWire(v.StaticProperties),
			"instance_props": propsToWire(v.InstanceProperties),
		}
	case *Opaque:
		return json.RawMessage(v.Raw)
	}
	return map[string]any{"class": string(dt.Kind())}
}

func listToWire(list []DataType) []any {
	out := make([]any, len(list))
	for i, dt := range list {
		out[i] = toWire(dt)
	}
	return out
}

func propsToWire(props map[string]DataType) map[string]any {
	out := make(map[string]any, len(props))
	for name, dt := range props {
		out[name] = toWire(dt)
	}
	return out
}
