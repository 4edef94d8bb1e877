// builtin_option.go — Option and Result method natives. The interpreter
// dispatches `$x.unwrap()` on an Option receiver to "option.unwrap", with
// the receiver as args[0].
package deka

func optionPayload(in *Interp, h Handle) Handle {
	_, payload := in.A.EnumPayload(h)
	if len(payload) == 0 {
		return in.A.None()
	}
	return payload[0]
}

func init() {
	builtins.MustRegister(&Native{Name: "option.unwrap", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "None" {
				in.throwErr(&PanicSignal{Msg: "called unwrap() on Option::None"})
			}
			return optionPayload(in, args[0]), nil
		}})

	builtins.MustRegister(&Native{Name: "option.unwrap_or", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "None" {
				return args[1], nil
			}
			return optionPayload(in, args[0]), nil
		}})

	builtins.MustRegister(&Native{Name: "option.is_some", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			return in.A.Bool(in.A.EnumCase(args[0]) == "Some"), nil
		}})

	builtins.MustRegister(&Native{Name: "option.is_none", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			return in.A.Bool(in.A.EnumCase(args[0]) == "None"), nil
		}})

	builtins.MustRegister(&Native{Name: "result.unwrap", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "Err" {
				in.throwErr(&PanicSignal{
					Msg: "called unwrap() on Result::Err(" + in.display(optionPayload(in, args[0])) + ")"})
			}
			return optionPayload(in, args[0]), nil
		}})

	builtins.MustRegister(&Native{Name: "result.unwrap_err", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "Ok" {
				in.throwErr(&PanicSignal{Msg: "called unwrap_err() on Result::Ok"})
			}
			return optionPayload(in, args[0]), nil
		}})

	builtins.MustRegister(&Native{Name: "result.unwrap_or", MinArity: 2, MaxArity: 2,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "Err" {
				return args[1], nil
			}
			return optionPayload(in, args[0]), nil
		}})

	builtins.MustRegister(&Native{Name: "result.is_ok", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			return in.A.Bool(in.A.EnumCase(args[0]) == "Ok"), nil
		}})

	builtins.MustRegister(&Native{Name: "result.is_err", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			return in.A.Bool(in.A.EnumCase(args[0]) == "Err"), nil
		}})

	builtins.MustRegister(&Native{Name: "result.ok", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "Ok" {
				return in.A.Enum("Option", "Some", []string{"value"},
					[]Handle{in.A.Copy(optionPayload(in, args[0]))}), nil
			}
			return in.A.Enum("Option", "None", nil, nil), nil
		}})

	builtins.MustRegister(&Native{Name: "result.err", MinArity: 1, MaxArity: 1,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.A.EnumCase(args[0]) == "Err" {
				return in.A.Enum("Option", "Some", []string{"value"},
					[]Handle{in.A.Copy(optionPayload(in, args[0]))}), nil
			}
			return in.A.Enum("Option", "None", nil, nil), nil
		}})
}
