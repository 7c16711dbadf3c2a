package mathml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// body strips the <math> wrapper and annotation.
func body(t *testing.T, tex string, display bool) string {
	t.Helper()
	out, err := Convert(tex, display)
	require.NoError(t, err)
	start := strings.Index(out, "<semantics><mrow>") + len("<semantics><mrow>")
	end := strings.Index(out, "</mrow><annotation")
	return out[start:end]
}

func TestConvert_Wrapper(t *testing.T) {
	out, err := Convert("x^2", false)
	require.NoError(t, err)
	assert.Equal(t, `<math xmlns="http://www.w3.org/1998/Math/MathML"><semantics><mrow><msup><mi>x</mi><mn>2</mn></msup></mrow>`+
		`<annotation encoding="application/x-tex">x^2</annotation></semantics></math>`, out)

	block, err := Convert(" a ", true)
	require.NoError(t, err)
	assert.Contains(t, block, `display="block"`)
	assert.Contains(t, block, `<annotation encoding="application/x-tex">a</annotation>`)
}

func TestConvert_Constructs(t *testing.T) {
	cases := []struct {
		name    string
		tex     string
		display bool
		want    string
	}{
		{"fraction", `\frac{a}{b}`, false, `<mfrac><mi>a</mi><mi>b</mi></mfrac>`},
		{"sum inline", `\sum_{i=1}^n i`, false,
			`<msubsup><mo largeop="true">∑</mo><mrow><mi>i</mi><mo>=</mo><mn>1</mn></mrow><mi>n</mi></msubsup><mi>i</mi>`},
		{"sum display", `\sum_{i=1}^n i`, true,
			`<munderover><mo largeop="true">∑</mo><mrow><mi>i</mi><mo>=</mo><mn>1</mn></mrow><mi>n</mi></munderover><mi>i</mi>`},
		{"integral keeps scripts", `\int_0^1`, true, `<msubsup><mo largeop="true">∫</mo><mn>0</mn><mn>1</mn></msubsup>`},
		{"root", `\sqrt[3]{x}`, false, `<mroot><mi>x</mi><mn>3</mn></mroot>`},
		{"square root", `\sqrt 2`, false, `<msqrt><mn>2</mn></msqrt>`},
		{"greek", `\alpha + \Omega`, false, `<mi>α</mi><mo>+</mo><mi mathvariant="normal">Ω</mi>`},
		{"decimal", `3.14`, false, `<mn>3.14</mn>`},
		{"trailing dot", `1.`, false, `<mn>1</mn><mo>.</mo>`},
		{"escaping", `a<b`, false, `<mi>a</mi><mo>&lt;</mo><mi>b</mi>`},
		{"prime", `f'`, false, `<msup><mi>f</mi><mo>′</mo></msup>`},
		{"text", `\text{if } x`, false, `<mtext>if </mtext><mi>x</mi>`},
		{"fences", `\left( x \right)`, false,
			`<mrow><mo fence="true" stretchy="true">(</mo><mi>x</mi><mo fence="true" stretchy="true">)</mo></mrow>`},
		{"empty fence", `\left. x \right|`, false,
			`<mrow><mi>x</mi><mo fence="true" stretchy="true">|</mo></mrow>`},
		{"accent", `\vec{v}`, false, `<mover accent="true"><mi>v</mi><mo>→</mo></mover>`},
		{"font", `\mathbb{R}`, false, `<mstyle mathvariant="double-struck"><mi>R</mi></mstyle>`},
		{"function limits", `\lim_{x\to 0}`, true,
			`<munder><mi>lim</mi><mrow><mi>x</mi><mo>→</mo><mn>0</mn></mrow></munder>`},
		{"spacing", `a\,b`, false, `<mi>a</mi><mspace width="0.1667em"></mspace><mi>b</mi>`},
		{"matrix", `\begin{pmatrix}a & b \\ c & d\end{pmatrix}`, false,
			`<mrow><mo fence="true" stretchy="true">(</mo><mtable><mtr><mtd><mi>a</mi></mtd><mtd><mi>b</mi></mtd></mtr>` +
				`<mtr><mtd><mi>c</mi></mtd><mtd><mi>d</mi></mtd></mtr></mtable><mo fence="true" stretchy="true">)</mo></mrow>`},
		{"matrix trailing row separator", `\begin{matrix}a \\ \end{matrix}`, false,
			`<mrow><mtable><mtr><mtd><mi>a</mi></mtd></mtr></mtable></mrow>`},
		{"binomial", `\binom{n}{k}`, false,
			`<mrow><mo>(</mo><mfrac linethickness="0"><mi>n</mi><mi>k</mi></mfrac><mo>)</mo></mrow>`},
		{"minus sign", `-x`, false, `<mo>−</mo><mi>x</mi>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, body(t, tc.tex, tc.display))
		})
	}
}

func TestConvert_Errors(t *testing.T) {
	cases := []struct {
		tex string
		msg string
	}{
		{`\foo`, `unknown command \foo`},
		{`{x`, "unbalanced braces"},
		{`x}`, "unexpected }"},
		{`x^`, "missing argument for ^"},
		{`x^1^2`, "double script"},
		{`a & b`, "& outside of an environment"},
		{`\left( x`, `missing \right`},
		{`\begin{pmatrix}a\end{bmatrix}`, `\begin{pmatrix} closed by \end{bmatrix}`},
		{`\begin{tabular}a\end{tabular}`, "unknown environment tabular"},
		{`\text`, `missing argument for \text`},
		{`x\`, "trailing backslash"},
	}
	for _, tc := range cases {
		t.Run(tc.tex, func(t *testing.T) {
			_, err := Convert(tc.tex, false)
			require.Error(t, err)
			var merr *Error
			require.ErrorAs(t, err, &merr)
			assert.Contains(t, merr.Msg, tc.msg)
		})
	}
}

func TestConvert_ErrorPosition(t *testing.T) {
	_, err := Convert(`a + \nope`, false)
	require.Error(t, err)
	assert.Equal(t, `unknown command \nope at position 4`, err.Error())
}

func TestConvert_UnicodeMathSymbols(t *testing.T) {
	assert.Equal(t, `<mi>a</mi><mo>⊞</mo><mi>b</mi>`, body(t, `a \boxplus b`, false))
	assert.Equal(t, `<msub><mi>ℶ</mi><mn>0</mn></msub>`, body(t, `\beth_0`, false))

	_, err := Convert(`\boxplus \nosuchsymbol`, false)
	require.Error(t, err)
	assert.Equal(t, `unknown command \nosuchsymbol at position 9`, err.Error())
}

func TestConvert_Chemistry(t *testing.T) {
	el := func(s string) string { return `<mi mathvariant="normal">` + s + `</mi>` }
	cases := []struct {
		name string
		tex  string
		want string
	}{
		{"water", `\ce{H2O}`, `<mrow><msub>` + el("H") + `<mn>2</mn></msub>` + el("O") + `</mrow>`},
		{"ion", `\ce{Na+}`, `<mrow><msup>` + el("Na") + `<mo>+</mo></msup></mrow>`},
		{"sulfate", `\ce{SO4^{2-}}`,
			`<mrow>` + el("S") + `<msubsup>` + el("O") + `<mn>4</mn><mrow><mn>2</mn><mo>−</mo></mrow></msubsup></mrow>`},
		{"reaction", `\ce{2H2 + O2 -> 2H2O}`,
			`<mrow><mn>2</mn><msub>` + el("H") + `<mn>2</mn></msub><mo>+</mo><msub>` + el("O") + `<mn>2</mn></msub>` +
				`<mo stretchy="false">→</mo><mn>2</mn><msub>` + el("H") + `<mn>2</mn></msub>` + el("O") + `</mrow>`},
		{"equilibrium", `\ce{A <=> B}`, `<mrow>` + el("A") + `<mo stretchy="false">⇌</mo>` + el("B") + `</mrow>`},
		{"state", `\ce{NaCl(aq)}`,
			`<mrow>` + el("Na") + el("Cl") + `<mo>(</mo>` + el("aq") + `<mo>)</mo></mrow>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, body(t, tc.tex, false))
		})
	}
}

func TestConvert_ChemistryErrors(t *testing.T) {
	cases := []struct {
		tex string
		msg string
	}{
		{`\ce`, `missing argument for \ce`},
		{`\ce{}`, `empty \ce`},
		{`\ce{H2O!}`, `unsupported character "!" in \ce`},
		{`\ce{^2+}`, `charge without a species in \ce`},
		{`\ce{Fe^{x}}`, `invalid charge "x" in \ce`},
	}
	for _, tc := range cases {
		t.Run(tc.tex, func(t *testing.T) {
			_, err := Convert(tc.tex, false)
			var merr *Error
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tc.msg, merr.Msg)
		})
	}
}
