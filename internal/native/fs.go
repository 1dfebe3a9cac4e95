package native

import (
	"ember/internal/errs"
	"ember/internal/object"
	"errors"
	"io/fs"
	"os"
)

func FsModule() Module {
	return Module{
		Name: "fs",
		Functions: map[string]Function{
			"readFile":   fnFsReadFile,
			"writeFile":  fnFsWriteFile,
			"appendFile": fnFsAppendFile,
			"exists":     fnFsExists,
		},
	}
}

func fnFsReadFile(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("readFile", args, 1); err != nil {
		return nil, err
	}
	path, err := unpackString("readFile", args, 0)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to read file")
	}

	return &object.String{Value: string(data)}, nil
}

// fnFsWriteFile replaces the file content with the canonical form of the
// second argument.
func fnFsWriteFile(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("writeFile", args, 2); err != nil {
		return nil, err
	}
	path, err := unpackString("writeFile", args, 0)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, []byte(args[1].Inspect()), 0644); err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to write file")
	}

	return object.NULL, nil
}

func fnFsAppendFile(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("appendFile", args, 2); err != nil {
		return nil, err
	}
	path, err := unpackString("appendFile", args, 0)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to open file")
	}
	defer f.Close()

	if _, err := f.WriteString(args[1].Inspect()); err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to append to file")
	}

	return object.NULL, nil
}

func fnFsExists(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("exists", args, 1); err != nil {
		return nil, err
	}
	path, err := unpackString("exists", args, 0)
	if err != nil {
		return nil, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return object.TRUE, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return object.FALSE, nil
	}
	return nil, errs.Wrap(errs.IOError, err, "failed to stat file")
}
