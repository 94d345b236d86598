package glbuild_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/gleval"
)

func TestShaderNameDeduplication(t *testing.T) {
	var bld glshape.Builder
	// s1 and s2 are identical in name and body but different primitives.
	s1 := bld.NewCircle(1)
	s2 := bld.NewCircle(1)
	s1s1 := bld.Union2D(s1, s1)
	s1s2 := bld.Union2D(s1, s2)
	s1Name := string(s1.AppendShaderName(nil))
	s2Name := string(s2.AppendShaderName(nil))
	if s1Name != s2Name {
		t.Error("expected same name, got\n", s1Name, "\n", s2Name)
	}
	decl := "float " + s1Name + "(vec2 p)"
	for _, obj := range []glbuild.Shader2D{s1s1, s1s2} {
		programmer := glbuild.NewDefaultProgrammer()
		source := new(bytes.Buffer)
		_, n, err := programmer.WriteSDFDecl(source, obj)
		if n != source.Len() {
			t.Fatal("written length mismatch", err)
		}
		if err != nil {
			t.Error(err)
		}
		src := source.String()
		declCount := strings.Count(src, decl)
		if declCount != 1 {
			t.Errorf("\n%s\nDecl: want one declaration, got %d", src, declCount)
		}
		source.Reset()
		n, err = programmer.WriteFragmentShader(source, bld.Fill(obj, gleval.LinearRGBA(1, 1, 1, 1)))
		if n != source.Len() {
			t.Fatal("written length mismatch", err)
		}
		if err != nil {
			t.Error(err)
		}
		src = source.String()
		declCount = strings.Count(src, decl)
		if declCount != 1 {
			t.Errorf("\n%s\nFragment: want one declaration, got %d", src, declCount)
		}
	}
}

// fixedShader is a primitive with a user defined name, body and library functions.
type fixedShader struct {
	name, body string
	objs       []glbuild.ShaderObject
}

func (f *fixedShader) Bounds() ms2.Box                  { return ms2.NewBox(-1, -1, 1, 1) }
func (f *fixedShader) AppendShaderName(b []byte) []byte { return append(b, f.name...) }
func (f *fixedShader) AppendShaderBody(b []byte) []byte { return append(b, f.body...) }
func (f *fixedShader) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return nil
}
func (f *fixedShader) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, f.objs...)
}

func TestShaderNameConflict(t *testing.T) {
	var bld glshape.Builder
	a := &fixedShader{name: "same", body: "return length(p);"}
	b := &fixedShader{name: "same", body: "return length(p)-1.0;"}
	var buf bytes.Buffer
	_, _, err := glbuild.NewDefaultProgrammer().WriteSDFDecl(&buf, bld.Union2D(a, b))
	if err == nil {
		t.Fatal("expected error for distinct shaders with the same name")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("unexpected error: %s", err)
	}
}

func TestLibraryFunctionConflict(t *testing.T) {
	var bld glshape.Builder
	lib1 := glbuild.LibraryFunction([]byte("float libfn(float a) { return a; }"))
	lib2 := glbuild.LibraryFunction([]byte("float libfn(float a) { return 2.0*a; }"))
	a := &fixedShader{name: "fa", body: "return libfn(p.x);", objs: []glbuild.ShaderObject{lib1}}
	b := &fixedShader{name: "fb", body: "return libfn(p.y);", objs: []glbuild.ShaderObject{lib1}}
	var buf bytes.Buffer
	_, _, err := glbuild.NewDefaultProgrammer().WriteSDFDecl(&buf, bld.Union2D(a, b))
	if err != nil {
		t.Fatal(err)
	}
	if c := strings.Count(buf.String(), "float libfn("); c != 1 {
		t.Errorf("want identical library function declared once, got %d", c)
	}

	b.objs = []glbuild.ShaderObject{lib2}
	buf.Reset()
	_, _, err = glbuild.NewDefaultProgrammer().WriteSDFDecl(&buf, bld.Union2D(a, b))
	if err == nil {
		t.Fatal("expected error for library functions with same name and distinct sources")
	}
}

func TestMakeShaderFunction(t *testing.T) {
	for _, test := range []struct {
		src     string
		name    string
		wantErr bool
	}{
		{src: "float gsdfSquare(float a) { return a*a; }", name: "gsdfSquare"},
		{src: "\n\tvec3 gsdfTriple (vec3 a) { return 3.0*a; }\n", name: "gsdfTriple"},
		{src: "gsdfNoType(float a)", wantErr: true},
		{src: "float gsdfNoParens", wantErr: true},
		{src: "", wantErr: true},
	} {
		obj, err := glbuild.MakeShaderFunction([]byte(test.src))
		if test.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", test.src)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %s", test.src, err)
			continue
		}
		if string(obj.NamePtr) != test.name {
			t.Errorf("%q: got name %q, want %q", test.src, obj.NamePtr, test.name)
		}
		if err := obj.Validate(); err != nil {
			t.Error(err)
		}
	}
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v        float32
		neg, dec byte
		want     string
	}{
		{v: 1, neg: 'n', dec: 'p', want: "1p"},
		{v: -0.5, neg: 'n', dec: 'p', want: "n0p5"},
		{v: 0.25, neg: '-', dec: '.', want: "0.25"},
		{v: -3, neg: '-', dec: '.', want: "-3."},
		{v: 0, neg: 'n', dec: 'p', want: "0p"},
	} {
		got := string(glbuild.AppendFloat(nil, test.neg, test.dec, test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%g) got %q, want %q", test.v, got, test.want)
		}
	}
	got := string(glbuild.AppendFloats(nil, 'x', 'n', 'p', 1, -2, 0.5))
	if got != "1pxn2px0p5" {
		t.Errorf("AppendFloats got %q", got)
	}
}

func TestShortenNames2D(t *testing.T) {
	var bld glshape.Builder
	shape := bld.Union2D(
		bld.Translate2D(bld.NewRectangle(1.25, 0.75), 0.125, -3),
		bld.Translate2D(bld.NewRectangle(1.25, 0.75), 2.5, 1),
	)
	const maxLen = 8
	err := glbuild.ShortenNames2D(&shape, maxLen)
	if err != nil {
		t.Fatal(err)
	}
	name := shape.AppendShaderName(nil)
	// Truncated prefix and a base32 hash.
	if len(name) <= maxLen || len(name) > maxLen+13 {
		t.Errorf("unexpected shortened name %q", name)
	}
	var buf bytes.Buffer
	_, _, err = glbuild.NewDefaultProgrammer().WriteSDFDecl(&buf, shape)
	if err != nil {
		t.Fatal(err)
	}
	// Both translations shorten to the same prefix and must still get distinct names.
	if c := strings.Count(buf.String(), "float translat"); c != 2 {
		t.Errorf("want 2 distinct translation declarations, got %d:\n%s", c, buf.String())
	}
	// Evaluation is forwarded to the original shapes.
	sdf, err := gleval.AssertSDF2(shape)
	if err != nil {
		t.Fatal(err)
	}
	var vp gleval.VecPool
	dist := make([]float32, 1)
	err = sdf.Evaluate([]ms2.Vec{{X: 2.5, Y: 1}}, dist, &vp)
	if err != nil {
		t.Fatal(err)
	}
	if dist[0] != -0.375 {
		t.Errorf("got distance %f at shape center, want -0.375", dist[0])
	}
}

func TestVertexShaderSource(t *testing.T) {
	src := glbuild.VertexShaderSource
	if !strings.HasPrefix(src, glbuild.VersionStr) {
		t.Error("vertex program missing version directive")
	}
	if !strings.Contains(src, "in vec2 aPos;") {
		t.Error("vertex program missing position attribute")
	}
}

func TestWriteFragmentShaderNil(t *testing.T) {
	var buf bytes.Buffer
	_, err := glbuild.NewDefaultProgrammer().WriteFragmentShader(&buf, nil)
	if err == nil {
		t.Error("expected error for nil root")
	}
}
