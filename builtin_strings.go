// builtin_strings.go — string natives with their familiar PHP names.
package deka

import "strings"

func wantStr(in *Interp, op string, h Handle) (string, *NativeError) {
	if in.A.Tag(h) != TagStr {
		return "", badArg(op, "a string", in.A.Tag(h))
	}
	return in.A.AsStr(h), nil
}

func init() {
	builtins.MustRegister(&Native{Name: "strlen", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			s, err := wantStr(in, "strlen", args[0])
			if err != nil {
				return 0, err
			}
			return in.A.Int(int64(len(s))), nil
		}})

	builtins.MustRegister(&Native{Name: "strtoupper", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			s, err := wantStr(in, "strtoupper", args[0])
			if err != nil {
				return 0, err
			}
			return in.A.Str(strings.ToUpper(s)), nil
		}})

	builtins.MustRegister(&Native{Name: "strtolower", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			s, err := wantStr(in, "strtolower", args[0])
			if err != nil {
				return 0, err
			}
			return in.A.Str(strings.ToLower(s)), nil
		}})

	builtins.MustRegister(&Native{Name: "trim", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			s, err := wantStr(in, "trim", args[0])
			if err != nil {
				return 0, err
			}
			return in.A.Str(strings.TrimSpace(s)), nil
		}})

	builtins.MustRegister(&Native{Name: "str_contains", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			s, err := wantStr(in, "str_contains", args[0])
			if err != nil {
				return 0, err
			}
			sub, err := wantStr(in, "str_contains", args[1])
			if err != nil {
				return 0, err
			}
			return in.A.Bool(strings.Contains(s, sub)), nil
		}})

	builtins.MustRegister(&Native{Name: "str_replace", MinArity: 3, MaxArity: 3,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			from, err := wantStr(in, "str_replace", args[0])
			if err != nil {
				return 0, err
			}
			to, err := wantStr(in, "str_replace", args[1])
			if err != nil {
				return 0, err
			}
			s, err := wantStr(in, "str_replace", args[2])
			if err != nil {
				return 0, err
			}
			return in.A.Str(strings.ReplaceAll(s, from, to)), nil
		}})

	builtins.MustRegister(&Native{Name: "substr", MinArity: 2, MaxArity: 3,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			s, err := wantStr(in, "substr", args[0])
			if err != nil {
				return 0, err
			}
			if in.A.Tag(args[1]) != TagInt {
				return 0, badArg("substr", "an int offset", in.A.Tag(args[1]))
			}
			start := int(in.A.AsInt(args[1]))
			if start < 0 {
				start += len(s)
			}
			if start < 0 {
				start = 0
			}
			if start > len(s) {
				return in.A.Str(""), nil
			}
			end := len(s)
			if len(args) == 3 {
				if in.A.Tag(args[2]) != TagInt {
					return 0, badArg("substr", "an int length", in.A.Tag(args[2]))
				}
				n := int(in.A.AsInt(args[2]))
				if n < 0 {
					end += n
				} else if start+n < end {
					end = start + n
				}
				if end < start {
					end = start
				}
			}
			return in.A.Str(s[start:end]), nil
		}})

	builtins.MustRegister(&Native{Name: "explode", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			sep, err := wantStr(in, "explode", args[0])
			if err != nil {
				return 0, err
			}
			s, err := wantStr(in, "explode", args[1])
			if err != nil {
				return 0, err
			}
			if sep == "" {
				return 0, &NativeError{Op: "explode", Code: NativeBadArg,
					Msg: "explode: separator must not be empty"}
			}
			parts := strings.Split(s, sep)
			out := make([]Handle, len(parts))
			for i, part := range parts {
				out[i] = in.A.Str(part)
			}
			return in.A.Array(out), nil
		}})

	builtins.MustRegister(&Native{Name: "implode", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			sep, err := wantStr(in, "implode", args[0])
			if err != nil {
				return 0, err
			}
			if in.A.Tag(args[1]) != TagArray {
				return 0, badArg("implode", "an array", in.A.Tag(args[1]))
			}
			parts := make([]string, 0, len(in.A.AsArray(args[1])))
			for _, e := range in.A.AsArray(args[1]) {
				parts = append(parts, in.display(e))
			}
			return in.A.Str(strings.Join(parts, sep)), nil
		}})
}
