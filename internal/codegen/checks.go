package codegen

import (
	"regexp"
	"strings"

	"github.com/roach88/blocktest/internal/block"
)

// Static check types.
const (
	CheckClassExists         = "CLASS_EXISTS"
	CheckMethodExists        = "METHOD_EXISTS"
	CheckFieldExists         = "FIELD_EXISTS"
	CheckImplementsInterface = "IMPLEMENTS_INTERFACE"
)

// Structure check types.
const (
	CheckUsesLoop      = "USES_LOOP"
	CheckNoLoop        = "NO_LOOP"
	CheckUsesRecursion = "USES_RECURSION"
	CheckNoRecursion   = "NO_RECURSION"
	CheckCallsMethod   = "CALLS_METHOD"
)

func quote(s string) string {
	return `"` + s + `"`
}

func forName(class string) string {
	return "Class.forName(" + quote(class) + ")"
}

var genericArgs = regexp.MustCompile(`<[^<>]*>`)

// eraseGenerics strips type arguments, innermost first.
func eraseGenerics(s string) string {
	for genericArgs.MatchString(s) {
		s = genericArgs.ReplaceAllString(s, "")
	}
	return s
}

// classLiterals turns "int, Map<String, List<Integer>>" into
// "int.class, Map.class".
func classLiterals(paramTypes string) string {
	var out []string
	for _, p := range strings.Split(eraseGenerics(paramTypes), ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p+".class")
		}
	}
	return strings.Join(out, ", ")
}

// staticLines renders a reflection-based existence check.
func staticLines(s block.StaticAssert) []string {
	if s.ClassName == "" {
		return nil
	}
	switch s.CheckType {
	case CheckClassExists:
		return []string{
			MarkerStatic + s.CheckType + " " + s.ClassName,
			"assertDoesNotThrow(() -> " + forName(s.ClassName) + ");",
		}
	case CheckMethodExists:
		if s.MethodName == "" {
			return nil
		}
		args := quote(s.MethodName)
		if params := classLiterals(s.ParamTypes); params != "" {
			args += ", " + params
		}
		lookup := forName(s.ClassName) + ".getDeclaredMethod(" + args + ")"
		out := []string{MarkerStatic + s.CheckType + " " + s.ClassName + "." + s.MethodName}
		if s.ReturnType != "" {
			return append(out, "assertEquals("+classLiterals(s.ReturnType)+", assertDoesNotThrow(() -> "+lookup+").getReturnType());")
		}
		return append(out, "assertDoesNotThrow(() -> "+lookup+");")
	case CheckFieldExists:
		if s.FieldName == "" {
			return nil
		}
		return []string{
			MarkerStatic + s.CheckType + " " + s.ClassName + "." + s.FieldName,
			"assertDoesNotThrow(() -> " + forName(s.ClassName) + ".getDeclaredField(" + quote(s.FieldName) + "));",
		}
	case CheckImplementsInterface:
		if s.InterfaceName == "" {
			return nil
		}
		return []string{
			MarkerStatic + s.CheckType + " " + s.ClassName + " " + s.InterfaceName,
			"assertTrue(assertDoesNotThrow(() -> " + s.InterfaceName + ".class.isAssignableFrom(" + forName(s.ClassName) + ")));",
		}
	}
	return nil
}

// structureLines renders a control-flow shape check against the submitted
// source through the grader's StructureAnalyzer helper.
func structureLines(s block.StructureCheck) []string {
	if s.MethodName == "" {
		return nil
	}
	marker := MarkerStructure + s.CheckType + " " + s.MethodName
	m := quote(s.MethodName)
	switch s.CheckType {
	case CheckUsesLoop:
		return []string{marker, "assertTrue(StructureAnalyzer.usesLoop(" + m + "));"}
	case CheckNoLoop:
		return []string{marker, "assertFalse(StructureAnalyzer.usesLoop(" + m + "));"}
	case CheckUsesRecursion:
		return []string{marker, "assertTrue(StructureAnalyzer.usesRecursion(" + m + "));"}
	case CheckNoRecursion:
		return []string{marker, "assertFalse(StructureAnalyzer.usesRecursion(" + m + "));"}
	case CheckCallsMethod:
		if s.Target == "" {
			return nil
		}
		return []string{
			marker + " " + s.Target,
			"assertTrue(StructureAnalyzer.callsMethod(" + m + ", " + quote(s.Target) + "));",
		}
	}
	return nil
}
