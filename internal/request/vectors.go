package request

import "strconv"

// buildArgv copies a JSON array of strings into a new slice, in order.
// An empty array gives an empty, non-nil slice. If any element is not a
// string, nothing is returned.
func buildArgv(v Value) ([]string, error) {
	arr, ok := v.(Array)
	if !ok {
		return nil, fieldError("data.args", "expected array, got %s", kindOf(v))
	}

	argv := make([]string, 0, len(arr))
	for i, elem := range arr {
		s, ok := elem.(String)
		if !ok {
			return nil, fieldError("data.args."+strconv.Itoa(i), "expected string, got %s", elem.Kind())
		}
		argv = append(argv, string(s))
	}
	return argv, nil
}

// buildEnvp turns a JSON object of strings into KEY=VALUE entries, in the
// object's source order. An empty object gives an empty, non-nil slice. If
// any value is not a string, nothing is returned.
func buildEnvp(v Value) ([]string, error) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, fieldError("data.env", "expected object, got %s", kindOf(v))
	}

	envp := make([]string, 0, obj.Len())
	for _, m := range obj.Members() {
		s, ok := m.Value.(String)
		if !ok {
			return nil, fieldError("data.env."+m.Key, "expected string, got %s", m.Value.Kind())
		}
		envp = append(envp, m.Key+"="+string(s))
	}
	return envp, nil
}

func kindOf(v Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}
