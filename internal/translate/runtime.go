package translate

import "runtime"

var runtimeIsWindows = runtime.GOOS == "windows"
