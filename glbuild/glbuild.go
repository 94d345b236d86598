package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild/glsllib"
	"github.com/soypat/glshape/gleval"
)

const VersionStr = "#version 430\n"

// Shader stores information for automatically generating SDF Shader pipelines
// and evaluating them correctly on a GPU.
type Shader interface {
	// AppendShaderName appends the name of the GL shader function
	// to the buffer and returns the result. It should be unique to that shader.
	AppendShaderName(b []byte) []byte
	// AppendShaderBody appends the body of the shader function to the
	// buffer and returns the result.
	AppendShaderBody(b []byte) []byte
	// AppendShaderObjects appends library functions needed to
	// evaluate the shader correctly. See [ShaderObject].
	AppendShaderObjects(objs []ShaderObject) []ShaderObject
}

// Shader2D can create SDF shader source code for an arbitrary 2D shape.
// Its GLSL function has the signature:
//
//	float name(vec2 p)
type Shader2D interface {
	Shader
	// ForEach2DChild iterates over the Shader2D's direct Shader2D children.
	// Unary operations have one child i.e: Translate, Offset.
	// Binary operations have two children i.e: Union, Intersection, Difference.
	ForEach2DChild(userData any, fn func(userData any, s *Shader2D) error) error
	// Bounds returns the Shader2D's bounding box where the SDF is negative.
	Bounds() ms2.Box
}

// ShapeShader can create shader source code for a colored 2D shape, that is
// a distance field paired with a color field. Its GLSL function has the signature:
//
//	Shape name(Env env, vec2 p)
//
// ShapeShader and [Shader2D] have disjoint method sets so that a colored shape
// can not be passed where a distance shape is expected.
type ShapeShader interface {
	Shader
	// ForEachShapeChild iterates over the direct children of the shape.
	// Colored children are passed to fnShape and distance children to fn2.
	ForEachShapeChild(userData any, fnShape func(userData any, s *ShapeShader) error, fn2 func(userData any, s *Shader2D) error) error
	// Bounds returns the bounding box of the region where the shape may be visible.
	Bounds() ms2.Box
}

// ShaderObject is a GLSL library function needed to evaluate a [Shader] correctly.
// Objects are deduplicated by name and source during program generation.
type ShaderObject struct {
	// NamePtr is the name of the function inside of the source.
	NamePtr []byte
	// funcSource is the full function source, overloads included.
	funcSource []byte
}

// Programmer implements shader generation logic for Shader type.
type Programmer struct {
	scratchNodes []Shader
	scratch      []byte
	objsScratch  []ShaderObject
	// names maps shader names to body hashes for checking duplicates.
	names map[uint64]uint64
}

// MakeShaderFunction parses a GLSL function definition and returns it as a [ShaderObject].
// The function name is taken from the first declaration in shaderDef.
func MakeShaderFunction(shaderDef []byte) (sf ShaderObject, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := shaderDef[fnNameStart:fnNameEnd]
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return ShaderObject{}, errors.New("empty function name")
	}
	sf = ShaderObject{
		NamePtr:    name,
		funcSource: shaderDef,
	}
	return sf, nil
}

// LibraryFunction is like [MakeShaderFunction] but panics on a malformed definition.
// Use with static sources such as those of package glsllib.
func LibraryFunction(shaderDef []byte) ShaderObject {
	obj, err := MakeShaderFunction(shaderDef)
	if err != nil {
		panic(err)
	}
	return obj
}

// Source returns the GLSL source of the function.
func (obj ShaderObject) Source() []byte { return obj.funcSource }

func (obj ShaderObject) Validate() error {
	if len(obj.NamePtr) == 0 {
		return errors.New("shader object zero-length name")
	} else if len(obj.funcSource) == 0 {
		return errors.New("shader object empty function source")
	}
	return nil
}

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratchNodes: make([]Shader, 64),
		scratch:      make([]byte, 1024), // Max length of shader token is around 1024..1060 characters.
		names:        make(map[uint64]uint64),
	}
}

// pixelStageObjects are the library functions called by the fragment program's main.
// Order matters: the distance meter calls the smoothstep and mix functions.
func pixelStageObjects() []ShaderObject {
	return []ShaderObject{
		LibraryFunction(glsllib.Mix()),
		LibraryFunction(glsllib.SmoothStep01()),
		LibraryFunction(glsllib.EncodeSRGB()),
		LibraryFunction(glsllib.DistanceMeter()),
	}
}

const fragmentHeader = `
uniform float uZoom;
uniform float uPixelRatio;
uniform uint uSymbolID;
uniform uint uInstanceID;
uniform int uDisplayMode;
// Framebuffer size in device pixels.
uniform vec2 uResolution;
// Shape space point drawn at the center of the framebuffer.
uniform vec2 uCenter;

layout(location = 0) out vec4 output_color;
layout(location = 1) out uvec4 output_id;

`

// WriteFragmentShader writes a GLSL fragment program that evaluates root at every pixel
// and writes the display color to output_color (location 0) and the object-id to
// output_id (location 1). Uniforms uZoom, uPixelRatio, uSymbolID, uInstanceID and uDisplayMode
// hold the draw environment, see [gleval.Env]. uResolution and uCenter map fragment
// coordinates to shape space.
func (p *Programmer) WriteFragmentShader(w io.Writer, root ShapeShader) (n int, err error) {
	if root == nil {
		return 0, errors.New("nil root shape")
	}
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], root)
	if err != nil {
		return 0, err
	}
	p.scratch = append(p.scratch[:0], VersionStr...)
	p.scratch = append(p.scratch, fragmentHeader...)
	p.scratch = append(p.scratch, glsllib.Types()...)
	p.scratch = append(p.scratch, '\n')
	n, err = w.Write(p.scratch)
	if err != nil {
		return n, err
	}
	ngot, err := p.writeShaders(w, nodes, pixelStageObjects())
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `
void main() {
	Env env = Env(uZoom, uPixelRatio, uSymbolID, uInstanceID, uDisplayMode);
	vec2 p = uCenter + (gl_FragCoord.xy - 0.5*uResolution) / (env.zoom*env.pixel_ratio);
	Shape shape = %s(env, p);
	float alpha = shape.color.a;
	if (env.display_mode == %d) {
		float w = %s / (env.zoom*env.pixel_ratio);
		output_color = vec4(gsdfDistanceMeter(shape.distance, w, w), 1.0);
	} else {
		// Undefined display modes draw as normal.
		output_color = vec4(gsdfEncodeSRGB(shape.color.rgb)*alpha, alpha);
		output_color.rgb *= alpha;
	}
	uint covered = alpha > 0.5 ? 1u : 0u;
	output_id = uvec4(env.symbol_id, env.instance_id, 0u, 1u) * covered;
}
`, baseName, int32(gleval.DisplayDistance), AppendFloat(nil, '-', '.', gleval.DebugFalloff))
	n += ngot
	return n, err
}

// VertexShaderSource is the fullscreen quad vertex program paired with the fragment
// program written by [Programmer.WriteFragmentShader]. The quad's vertices are fed
// through the aPos attribute as two triangles in clip space.
const VertexShaderSource = VersionStr + `
in vec2 aPos;

void main() {
	gl_Position = vec4(aPos, 0.0, 1.0);
}
`

// WriteSDFDecl writes the library functions and shader function declarations of s and returns the top-level function name.
func (p *Programmer) WriteSDFDecl(w io.Writer, s Shader) (baseName string, n int, err error) {
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], s)
	if err != nil {
		return "", 0, err
	}
	n, err = p.writeShaders(w, nodes, nil)
	if err != nil {
		return "", n, err
	}
	return baseName, n, nil
}

func (p *Programmer) writeShaders(w io.Writer, nodes []Shader, prelude []ShaderObject) (n int, err error) {
	clear(p.names)
	p.scratch = p.scratch[:0]
	p.objsScratch = append(p.objsScratch[:0], prelude...)
	for i := len(nodes) - 1; i >= 0; i-- {
		p.objsScratch = nodes[i].AppendShaderObjects(p.objsScratch)
	}
	for i := range p.objsScratch {
		obj := &p.objsScratch[i]
		if err := obj.Validate(); err != nil {
			return n, err
		}
		nameHash := hash(obj.NamePtr, 0)
		srcHash := hash(obj.funcSource, nameHash)
		gotHash, nameConflict := p.names[nameHash]
		if nameConflict {
			if gotHash == srcHash {
				continue // Identical library function already written.
			}
			return n, fmt.Errorf("shader function name conflict: %q declared with distinct sources", obj.NamePtr)
		}
		p.names[nameHash] = srcHash
		p.scratch = append(p.scratch, obj.funcSource...)
		p.scratch = append(p.scratch, '\n', '\n')
	}
	if len(p.scratch) > 0 {
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		var name, body []byte
		p.scratch, name, body = AppendShaderSource(p.scratch[:0], node)
		nameHash := hash(name, 0)
		bodyHash := hash(body, nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			// Name already exists in tree, check if bodies are identical.
			if bodyHash == gotBodyHash {
				continue // Shader already written and is identical, skip.
			}
			var conflictBody []byte
			for j := i + 1; j < len(nodes); j++ {
				conflictBody = nodes[j].AppendShaderName(conflictBody[:0])
				if bytes.Equal(conflictBody, name) {
					conflictBody = nodes[j].AppendShaderBody(conflictBody[:0])
					break
				}
				conflictBody = conflictBody[:0]
			}
			return n, fmt.Errorf("duplicate %T shader name %q w/ body:\n%s\n\nconflict with distinct shader with same name:\n%s", unwraproot(node), name, body, conflictBody)
		}
		p.names[nameHash] = bodyHash
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

const shorteningBufsize = 1024

// ShortenNames2D replaces the names of root and its descendants that are longer than
// maxRewriteLen with a truncated name plus a hash of the original name and body.
func ShortenNames2D(root *Shader2D, maxRewriteLen int) error {
	scratch := make([]byte, shorteningBufsize)
	rewriteShape := func(a any, s *ShapeShader) error {
		scratch = rewriteNameShape(s, scratch, maxRewriteLen)
		return nil
	}
	rewrite2 := func(a any, s2 *Shader2D) error {
		scratch = rewriteName2(s2, scratch, maxRewriteLen)
		return nil
	}
	err := forEachNodeBFS(*root, rewriteShape, rewrite2)
	if err != nil {
		return err
	}
	return rewrite2(nil, root)
}

// ShortenNamesShape is the [ShapeShader] counterpart of [ShortenNames2D].
func ShortenNamesShape(root *ShapeShader, maxRewriteLen int) error {
	scratch := make([]byte, shorteningBufsize)
	rewriteShape := func(a any, s *ShapeShader) error {
		scratch = rewriteNameShape(s, scratch, maxRewriteLen)
		return nil
	}
	rewrite2 := func(a any, s2 *Shader2D) error {
		scratch = rewriteName2(s2, scratch, maxRewriteLen)
		return nil
	}
	err := forEachNodeBFS(*root, rewriteShape, rewrite2)
	if err != nil {
		return err
	}
	return rewriteShape(nil, root)
}

func rewriteNameShape(s *ShapeShader, scratch []byte, rewritelen int) []byte {
	sd := *s
	if _, ok := sd.(*nameOverloadShape); ok {
		return scratch // Already overloaded.
	}
	name, scratch := makeShortname(sd, scratch, rewritelen)
	if name == nil {
		return scratch
	}
	*s = &nameOverloadShape{Shader: sd, name: name}
	return scratch
}

func rewriteName2(s2 *Shader2D, scratch []byte, rewritelen int) []byte {
	sd2 := *s2
	if _, ok := sd2.(*nameOverloadShader2D); ok {
		return scratch // Already overloaded.
	}
	name, scratch := makeShortname(sd2, scratch, rewritelen)
	if name == nil {
		return scratch
	}
	*s2 = &nameOverloadShader2D{Shader: sd2, name: name}
	return scratch
}

// makeShortname returns a new name for s if its current name is at least rewritelen long.
func makeShortname(s Shader, scratch []byte, rewritelen int) (newNameOrNil []byte, newScratch []byte) {
	var h uint64 = 0xff51afd7ed558ccd
	scratch = s.AppendShaderName(scratch[:0])
	if len(scratch) < rewritelen {
		return nil, scratch // Already short name, no need to rewrite.
	}
	newName := append([]byte{}, scratch[:rewritelen]...)
	h = hash(scratch, h)
	scratch = s.AppendShaderBody(scratch[:0])
	h = hash(scratch, h)
	newName = strconv.AppendUint(newName, h, 32)
	return newName, scratch
}

// ParseAppendNodes parses the shader object tree and appends all nodes in Breadth First order
// to the dst Shader argument buffer and returns the result.
func ParseAppendNodes(dst []Shader, root Shader) (baseName string, nodes []Shader, err error) {
	if root == nil {
		return "", nil, errors.New("nil shader object")
	}
	baseName = string(root.AppendShaderName([]byte{}))
	if baseName == "" {
		return "", nil, errors.New("empty shader name")
	}
	dst, err = AppendAllNodes(dst, root)
	if err != nil {
		return "", nil, err
	}
	return baseName, dst, nil
}

// AppendShaderSource appends the GL code of a single shader to the dst byte buffer.  If dst's
// capacity is grown during the writing the buffer with augmented capacity is returned. If not the same input dst is returned.
// name and body byte slices pointing to the result buffer are also returned for convenience.
func AppendShaderSource(dst []byte, s Shader) (result, name, body []byte) {
	_, isShape := s.(ShapeShader)
	if isShape {
		dst = append(dst, "Shape "...)
	} else {
		dst = append(dst, "float "...)
	}
	nameStart := len(dst)
	dst = s.AppendShaderName(dst)
	nameEnd := len(dst)
	if isShape {
		dst = append(dst, "(Env env, vec2 p){\n"...)
	} else {
		dst = append(dst, "(vec2 p){\n"...)
	}
	bodyStart := len(dst)
	dst = s.AppendShaderBody(dst)
	bodyEnd := len(dst)
	dst = append(dst, "\n}\n"...)
	return dst, dst[nameStart:nameEnd], dst[bodyStart:bodyEnd]
}

var errNilChild = errors.New("got nil child shader")

// AppendAllNodes BFS iterates over all of root's descendants and appends all nodes
// found to dst.
//
// To generate shaders one must iterate over nodes in reverse order to ensure
// the first iterated nodes are the nodes with no dependencies on other nodes.
func AppendAllNodes(dst []Shader, root Shader) ([]Shader, error) {
	start := len(dst)
	dst = append(dst, root)
	err := forEachNodeBFS(root, func(_ any, s *ShapeShader) error {
		dst = append(dst, *s)
		return nil
	}, func(_ any, s *Shader2D) error {
		dst = append(dst, *s)
		return nil
	})
	if err != nil {
		return dst[:start], err
	}
	return dst, nil
}

// forEachNodeBFS calls fnShape or fn2 with a pointer to every descendant of root
// in breadth first order. The callbacks may replace the pointed to node.
func forEachNodeBFS(root Shader, fnShape func(userData any, s *ShapeShader) error, fn2 func(userData any, s2 *Shader2D) error) error {
	var userData any
	children := []Shader{root}
	nextChild := 0
	visitShape := func(userData any, s *ShapeShader) error {
		if s == nil || *s == nil {
			return errNilChild
		}
		children = append(children, *s)
		return fnShape(userData, s)
	}
	visit2 := func(userData any, s *Shader2D) error {
		if s == nil || *s == nil {
			return errNilChild
		}
		children = append(children, *s)
		return fn2(userData, s)
	}
	for len(children[nextChild:]) > 0 {
		obj := children[nextChild]
		nextChild++
		var err error
		switch sd := obj.(type) {
		case ShapeShader:
			err = sd.ForEachShapeChild(userData, visitShape, visit2)
		case Shader2D:
			err = sd.ForEach2DChild(userData, visit2)
		default:
			err = fmt.Errorf("found shader %T that does not implement ShapeShader nor Shader2D", obj)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func forEachNodeDFS(obj Shader, fnEnter, fnExit func(s Shader) error) (err error) {
	var userData any
	err = fnEnter(obj)
	if err != nil {
		return err
	}
	switch sd := obj.(type) {
	case ShapeShader:
		err = sd.ForEachShapeChild(userData, func(userData any, s *ShapeShader) error {
			return forEachNodeDFS(*s, fnEnter, fnExit)
		}, func(userData any, s *Shader2D) error {
			return forEachNodeDFS(*s, fnEnter, fnExit)
		})
	case Shader2D:
		err = sd.ForEach2DChild(userData, func(userData any, s *Shader2D) error {
			return forEachNodeDFS(*s, fnEnter, fnExit)
		})
	default:
		err = fmt.Errorf("found shader %T that does not implement ShapeShader nor Shader2D", obj)
	}
	if err != nil {
		return err
	}
	return fnExit(obj)
}

func countDirectChildren(obj Shader) (directChildren int) {
	count := func(any) error {
		directChildren++
		return nil
	}
	switch sd := obj.(type) {
	case ShapeShader:
		sd.ForEachShapeChild(nil, func(userData any, s *ShapeShader) error {
			return count(userData)
		}, func(userData any, s *Shader2D) error {
			return count(userData)
		})
	case Shader2D:
		sd.ForEach2DChild(nil, func(userData any, s *Shader2D) error {
			return count(userData)
		})
	}
	return directChildren
}

// AppendDistanceDecl appends `float floatVarname=NAME(sdfPositionArgInput);`.
func AppendDistanceDecl(b []byte, floatVarname, sdfPositionArgInput string, s Shader2D) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = s.AppendShaderName(b)
	b = append(b, '(')
	b = append(b, sdfPositionArgInput...)
	b = append(b, ");\n"...)
	return b
}

// AppendShapeDecl appends `Shape shapeVarname=NAME(env,sdfPositionArgInput);`.
func AppendShapeDecl(b []byte, shapeVarname, sdfPositionArgInput string, s ShapeShader) []byte {
	b = append(b, "Shape "...)
	b = append(b, shapeVarname...)
	b = append(b, '=')
	b = s.AppendShaderName(b)
	b = append(b, "(env,"...)
	b = append(b, sdfPositionArgInput...)
	b = append(b, ");\n"...)
	return b
}

func AppendVec2Decl(b []byte, vec2Varname string, v ms2.Vec) []byte {
	b = append(b, "vec2 "...)
	b = append(b, vec2Varname...)
	b = append(b, "=vec2("...)
	b = AppendFloats(b, ',', '-', '.', v.X, v.Y)
	b = append(b, ')', ';', '\n')
	return b
}

func AppendVec4Decl(b []byte, vec4Varname string, v [4]float32) []byte {
	b = append(b, "vec4 "...)
	b = append(b, vec4Varname...)
	b = append(b, "=vec4("...)
	b = AppendFloats(b, ',', '-', '.', v[:]...)
	b = append(b, ')', ';', '\n')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

func AppendMat2Decl(b []byte, mat2Varname string, m22 ms2.Mat2) []byte {
	arr := m22.Array()
	b = append(b, "mat2 "...)
	b = append(b, mat2Varname...)
	b = append(b, "=mat2("...)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := arr[j*2+i] // Column major access, as per OpenGL standard.
			b = AppendFloat(b, '-', '.', v)
			if i != 1 || j != 1 {
				b = append(b, ',')
			}
		}
	}
	b = append(b, ");\n"...)
	return b
}

const decimalDigits = 9

// AppendFloat appends v with a fixed number of decimals and trailing zeros trimmed.
// The minus sign and decimal point are replaced by neg and decimal so that
// floats can also be embedded in identifiers.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

type nameOverloadShader2D struct {
	Shader Shader2D
	name   []byte
}

func (nos2 *nameOverloadShader2D) Bounds() ms2.Box { return nos2.Shader.Bounds() }

func (nos2 *nameOverloadShader2D) ForEach2DChild(userData any, fn func(userData any, s *Shader2D) error) error {
	return nos2.Shader.ForEach2DChild(userData, fn)
}

func (nos2 *nameOverloadShader2D) AppendShaderName(b []byte) []byte {
	return append(b, nos2.name...)
}

func (nos2 *nameOverloadShader2D) AppendShaderBody(b []byte) []byte {
	return nos2.Shader.AppendShaderBody(b)
}

// Evaluate implements [gleval.SDF2].
func (nos2 *nameOverloadShader2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	sdf, err := gleval.AssertSDF2(nos2.Shader)
	if err != nil {
		return err
	}
	return sdf.Evaluate(pos, dist, userData)
}

func (nos2 *nameOverloadShader2D) AppendShaderObjects(objs []ShaderObject) []ShaderObject {
	return nos2.Shader.AppendShaderObjects(objs)
}

func (nos2 *nameOverloadShader2D) unwrap() Shader { return nos2.Shader }

type nameOverloadShape struct {
	Shader ShapeShader
	name   []byte
}

func (nos *nameOverloadShape) Bounds() ms2.Box { return nos.Shader.Bounds() }

func (nos *nameOverloadShape) ForEachShapeChild(userData any, fnShape func(userData any, s *ShapeShader) error, fn2 func(userData any, s *Shader2D) error) error {
	return nos.Shader.ForEachShapeChild(userData, fnShape, fn2)
}

func (nos *nameOverloadShape) AppendShaderName(b []byte) []byte {
	return append(b, nos.name...)
}

func (nos *nameOverloadShape) AppendShaderBody(b []byte) []byte {
	return nos.Shader.AppendShaderBody(b)
}

// EvaluateShape implements [gleval.ShapeSDF].
func (nos *nameOverloadShape) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	sdf, err := gleval.AssertShapeSDF(nos.Shader)
	if err != nil {
		return err
	}
	return sdf.EvaluateShape(env, pos, dst, userData)
}

func (nos *nameOverloadShape) AppendShaderObjects(objs []ShaderObject) []ShaderObject {
	return nos.Shader.AppendShaderObjects(objs)
}

func (nos *nameOverloadShape) unwrap() Shader { return nos.Shader }

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}

func unwraproot(s Shader) Shader {
	i := 0
	var sbase Shader
	for s != nil && i < 6 {
		sbase = s
		s = unwrap(s)
		i++
	}
	return sbase
}

func unwrap(s Shader) Shader {
	if unwrapper, ok := s.(interface{ unwrap() Shader }); ok {
		return unwrapper.unwrap()
	}
	return nil
}

// FormatShader returns a compact representation of the shader tree such as
// "fill(union2D(circle2D,rect2D))".
func FormatShader(sh Shader) string {
	if sh == nil {
		panic("nil shader")
	}
	prevWasPrimitive := false
	var sb strings.Builder
	err := forEachNodeDFS(sh, func(s Shader) error {
		if prevWasPrimitive {
			sb.WriteByte(',')
		}
		prevWasPrimitive = false
		tp := reflect.TypeOf(s)
		if tp.Kind() == reflect.Pointer {
			tp = tp.Elem()
		}
		sb.WriteString(tp.Name())
		if countDirectChildren(s) != 0 {
			sb.WriteByte('(')
		}
		return nil
	}, func(s Shader) error {
		isPrimitive := countDirectChildren(s) == 0
		if !isPrimitive {
			sb.WriteByte(')')
		}
		prevWasPrimitive = true
		return nil
	})
	if err != nil {
		return err.Error()
	}
	return sb.String()
}
