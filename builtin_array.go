// builtin_array.go — array and collection natives.
package deka

func wantArr(in *Interp, op string, h Handle) ([]Handle, *NativeError) {
	if in.A.Tag(h) != TagArray {
		return nil, badArg(op, "an array", in.A.Tag(h))
	}
	return in.A.AsArray(h), nil
}

func init() {
	builtins.MustRegister(&Native{Name: "count", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			switch in.A.Tag(args[0]) {
			case TagArray:
				return in.A.Int(int64(len(in.A.AsArray(args[0])))), nil
			case TagObject, TagStruct:
				return in.A.Int(int64(len(in.A.AsRecord(args[0]).Keys))), nil
			case TagStr:
				return in.A.Int(int64(len(in.A.AsStr(args[0])))), nil
			}
			return 0, badArg("count", "an array, object, or string", in.A.Tag(args[0]))
		}})

	builtins.MustRegister(&Native{Name: "range", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.Tag(args[0]) != TagInt || in.A.Tag(args[1]) != TagInt {
				return 0, badArg("range", "int bounds", in.A.Tag(args[0]))
			}
			from, to := in.A.AsInt(args[0]), in.A.AsInt(args[1])
			var out []Handle
			if from <= to {
				for n := from; n <= to; n++ {
					out = append(out, in.A.Int(n))
				}
			} else {
				for n := from; n >= to; n-- {
					out = append(out, in.A.Int(n))
				}
			}
			return in.A.Array(out), nil
		}})

	builtins.MustRegister(&Native{Name: "array_push", MinArity: 2, MaxArity: -1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if _, err := wantArr(in, "array_push", args[0]); err != nil {
				return 0, err
			}
			for _, v := range args[1:] {
				in.A.AppendArray(args[0], in.A.Copy(v))
			}
			return args[0], nil
		}})

	builtins.MustRegister(&Native{Name: "array_map", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.Tag(args[0]) != TagFun {
				return 0, badArg("array_map", "a callable", in.A.Tag(args[0]))
			}
			elems, err := wantArr(in, "array_map", args[1])
			if err != nil {
				return 0, err
			}
			src := append([]Handle(nil), elems...)
			out := make([]Handle, len(src))
			for i, e := range src {
				out[i] = in.callValue(Pos{}, args[0], []Handle{e})
			}
			return in.A.Array(out), nil
		}})

	builtins.MustRegister(&Native{Name: "array_filter", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			elems, err := wantArr(in, "array_filter", args[0])
			if err != nil {
				return 0, err
			}
			if in.A.Tag(args[1]) != TagFun {
				return 0, badArg("array_filter", "a callable", in.A.Tag(args[1]))
			}
			src := append([]Handle(nil), elems...)
			var out []Handle
			for _, e := range src {
				keep := in.callValue(Pos{}, args[1], []Handle{e})
				if in.A.Truthy(keep) {
					out = append(out, in.A.Copy(e))
				}
			}
			return in.A.Array(out), nil
		}})

	builtins.MustRegister(&Native{Name: "array_keys", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			switch in.A.Tag(args[0]) {
			case TagObject, TagStruct:
				keys := in.A.AsRecord(args[0]).Keys
				out := make([]Handle, len(keys))
				for i, k := range keys {
					out[i] = in.A.Str(k)
				}
				return in.A.Array(out), nil
			case TagArray:
				n := len(in.A.AsArray(args[0]))
				out := make([]Handle, n)
				for i := 0; i < n; i++ {
					out[i] = in.A.Int(int64(i))
				}
				return in.A.Array(out), nil
			}
			return 0, badArg("array_keys", "an array or object", in.A.Tag(args[0]))
		}})
}
