// builtin_core.go — core natives: output, conversion, introspection,
// panics, and template construction.
package deka

import (
	"math"
	"strconv"
	"strings"
)

func init() {
	builtins.MustRegister(&Native{Name: "print", MinArity: 1, MaxArity: -1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			for _, a := range args {
				in.write(in.display(a))
			}
			return in.A.None(), nil
		}})

	builtins.MustRegister(&Native{Name: "panic", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			in.throwErr(&PanicSignal{Msg: in.display(args[0])})
			return 0, nil
		}})

	builtins.MustRegister(&Native{Name: "type_of", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			switch in.A.Tag(args[0]) {
			case TagStruct:
				return in.A.Str(in.A.StructName(args[0])), nil
			case TagEnum:
				return in.A.Str(in.A.StructName(args[0])), nil
			default:
				return in.A.Str(in.A.Tag(args[0]).String()), nil
			}
		}})

	builtins.MustRegister(&Native{Name: "intval", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			switch in.A.Tag(args[0]) {
			case TagInt:
				return args[0], nil
			case TagFloat:
				return in.A.Int(int64(in.A.AsFloat(args[0]))), nil
			case TagBool:
				if in.A.AsBool(args[0]) {
					return in.A.Int(1), nil
				}
				return in.A.Int(0), nil
			case TagStr:
				n, err := strconv.ParseInt(strings.TrimSpace(in.A.AsStr(args[0])), 10, 64)
				if err != nil {
					return 0, &NativeError{Op: "intval", Code: NativeBadArg,
						Msg: "intval: cannot parse " + strconv.Quote(in.A.AsStr(args[0]))}
				}
				return in.A.Int(n), nil
			}
			return 0, badArg("intval", "a number, bool, or string", in.A.Tag(args[0]))
		}})

	builtins.MustRegister(&Native{Name: "floatval", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			switch in.A.Tag(args[0]) {
			case TagFloat:
				return args[0], nil
			case TagInt:
				return in.A.Float(float64(in.A.AsInt(args[0]))), nil
			case TagStr:
				f, err := strconv.ParseFloat(strings.TrimSpace(in.A.AsStr(args[0])), 64)
				if err != nil {
					return 0, &NativeError{Op: "floatval", Code: NativeBadArg,
						Msg: "floatval: cannot parse " + strconv.Quote(in.A.AsStr(args[0]))}
				}
				return in.A.Float(f), nil
			}
			return 0, badArg("floatval", "a number or string", in.A.Tag(args[0]))
		}})

	builtins.MustRegister(&Native{Name: "strval", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			return in.A.Str(in.display(args[0])), nil
		}})

	builtins.MustRegister(&Native{Name: "abs", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			switch in.A.Tag(args[0]) {
			case TagInt:
				n := in.A.AsInt(args[0])
				if n < 0 {
					n = -n
				}
				return in.A.Int(n), nil
			case TagFloat:
				return in.A.Float(math.Abs(in.A.AsFloat(args[0]))), nil
			}
			return 0, badArg("abs", "a number", in.A.Tag(args[0]))
		}})

	builtins.MustRegister(&Native{Name: "element", MinArity: 3, MaxArity: 3,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.Tag(args[0]) != TagStr {
				return 0, badArg("element", "a tag name string", in.A.Tag(args[0]))
			}
			if in.A.Tag(args[1]) != TagObject {
				return 0, badArg("element", "an attribute object", in.A.Tag(args[1]))
			}
			if in.A.Tag(args[2]) != TagArray {
				return 0, badArg("element", "a children array", in.A.Tag(args[2]))
			}
			return in.makeVNode(in.A.AsStr(args[0]), args[1], args[2]), nil
		}})

	builtins.MustRegister(&Native{Name: "render", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.Tag(args[0]) != TagStruct || in.A.StructName(args[0]) != "VNode" {
				return 0, badArg("render", "a VNode", in.A.Tag(args[0]))
			}
			return in.A.Str(in.renderHTML(args[0])), nil
		}})
}
