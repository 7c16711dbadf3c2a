package mathml

var greek = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ", "varepsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "omicron": "ο", "pi": "π", "varpi": "ϖ",
	"rho": "ρ", "varrho": "ϱ", "sigma": "σ", "varsigma": "ς", "tau": "τ", "upsilon": "υ",
	"phi": "ϕ", "varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
}

var upperGreek = map[string]string{
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ", "Pi": "Π",
	"Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
}

// identifiers render as <mi>.
var identifiers = map[string]string{
	"infty": "∞", "partial": "∂", "nabla": "∇", "ell": "ℓ", "hbar": "ℏ",
	"emptyset": "∅", "varnothing": "∅", "aleph": "ℵ", "Re": "ℜ", "Im": "ℑ",
}

// operators render as <mo>.
var operators = map[string]string{
	"times": "×", "cdot": "⋅", "div": "÷", "pm": "±", "mp": "∓",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"ll": "≪", "gg": "≫", "approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃",
	"cong": "≅", "propto": "∝", "to": "→", "rightarrow": "→", "leftarrow": "←",
	"gets": "←", "Rightarrow": "⇒", "Leftarrow": "⇐", "leftrightarrow": "↔",
	"Leftrightarrow": "⇔", "iff": "⟺", "implies": "⟹", "mapsto": "↦",
	"in": "∈", "notin": "∉", "ni": "∋", "subset": "⊂", "subseteq": "⊆",
	"supset": "⊃", "supseteq": "⊇", "cup": "∪", "cap": "∩", "setminus": "∖",
	"forall": "∀", "exists": "∃", "neg": "¬", "lnot": "¬", "land": "∧", "wedge": "∧",
	"lor": "∨", "vee": "∨", "oplus": "⊕", "otimes": "⊗", "circ": "∘", "ast": "∗",
	"star": "⋆", "bullet": "∙", "ldots": "…", "dots": "…", "cdots": "⋯", "vdots": "⋮",
	"ddots": "⋱", "langle": "⟨", "rangle": "⟩", "lfloor": "⌊", "rfloor": "⌋",
	"lceil": "⌈", "rceil": "⌉", "mid": "∣", "parallel": "∥", "perp": "⊥",
	"angle": "∠", "prime": "′", "degree": "°",
	"{": "{", "}": "}", "|": "‖", "%": "%", "$": "$", "#": "#", "_": "_", "&": "&",
}

// largeOperators take limits; movable ones put them under and over in display mode.
var largeOperators = map[string]struct {
	sym     string
	movable bool
}{
	"sum": {"∑", true}, "prod": {"∏", true}, "coprod": {"∐", true},
	"bigcup": {"⋃", true}, "bigcap": {"⋂", true}, "bigoplus": {"⨁", true},
	"bigotimes": {"⨂", true}, "int": {"∫", false}, "iint": {"∬", false},
	"iiint": {"∭", false}, "oint": {"∮", false},
}

// functions render upright; the movable ones take limits like \lim.
var functions = map[string]bool{
	"sin": false, "cos": false, "tan": false, "cot": false, "sec": false, "csc": false,
	"arcsin": false, "arccos": false, "arctan": false, "sinh": false, "cosh": false,
	"tanh": false, "log": false, "ln": false, "exp": false, "det": false, "gcd": false,
	"deg": false, "dim": false, "ker": false, "arg": false, "Pr": false,
	"lim": true, "max": true, "min": true, "sup": true, "inf": true,
	"limsup": true, "liminf": true,
}

var spaces = map[string]string{
	",": "0.1667em", ":": "0.2222em", ">": "0.2222em", ";": "0.2778em",
	"!": "-0.1667em", " ": "0.25em", "quad": "1em", "qquad": "2em",
}

var accents = map[string]struct {
	mark  string
	under bool
}{
	"hat": {"^", false}, "widehat": {"^", false}, "bar": {"¯", false},
	"overline": {"‾", false}, "vec": {"→", false}, "dot": {"˙", false},
	"ddot": {"¨", false}, "tilde": {"~", false}, "widetilde": {"~", false},
	"overrightarrow": {"→", false}, "underline": {"_", true},
}

var fonts = map[string]string{
	"mathrm": "normal", "mathbf": "bold", "mathit": "italic", "mathbb": "double-struck",
	"mathcal": "script", "mathsf": "sans-serif", "mathtt": "monospace",
	"mathfrak": "fraktur", "boldsymbol": "bold-italic",
}

var textFonts = map[string]string{
	"text": "", "textrm": "", "mbox": "", "textit": "italic",
	"textbf": "bold", "textsf": "sans-serif", "texttt": "monospace",
}

var fractions = map[string]string{
	"frac": "", "dfrac": "true", "tfrac": "false", "cfrac": "true",
}

// environments maps a matrix-like environment to its fences.
var environments = map[string][2]string{
	"matrix": {"", ""}, "pmatrix": {"(", ")"}, "bmatrix": {"[", "]"},
	"Bmatrix": {"{", "}"}, "vmatrix": {"|", "|"}, "Vmatrix": {"‖", "‖"},
	"cases": {"{", ""}, "aligned": {"", ""}, "align": {"", ""}, "gathered": {"", ""},
}

// asciiOperators are single characters rendered as <mo>.
var asciiOperators = map[string]string{
	"+": "+", "-": "−", "*": "∗", "=": "=", "<": "<", ">": ">", "(": "(", ")": ")",
	"[": "[", "]": "]", "|": "|", "/": "/", ",": ",", ";": ";", ":": ":", "!": "!",
	"?": "?", ".": ".",
}
