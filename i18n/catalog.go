/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var zh = map[string]string{
	// defects
	"null pointer '%s' is dereferenced":                    "解引用了空指针 '%s'",
	"'%s' is used after its memory was released":           "'%s' 的内存释放后仍被使用",
	"'%s' is released twice":                               "'%s' 被重复释放",
	"'%s' is read before it is initialized":                "'%s' 在初始化之前被读取",
	"memory allocated for '%s' is never released":          "为 '%s' 分配的内存从未释放",
	"index %d is out of bounds for '%s' of size %d":        "下标 %d 超出了 '%s' 的范围（大小为 %d）",
	"division by '%s', which is always zero":               "除数 '%s' 的值始终为零",
	"division by zero":                                     "除数为零",
	"code is unreachable":                                  "代码不可达",
	"loop never terminates":                                "循环永远不会终止",
	"unused variable '%s'":                                 "未使用的变量 '%s'",
	"declaration of '%s' shadows a %s declared at line %d": "'%s' 的声明遮蔽了第 %[3]d 行声明的%[2]s",

	// syntax
	"unterminated literal %s": "未结束的字面量 %s",
	"unexpected character %q": "意外的字符 %q",

	// style
	"%s name '%s' should be %s":                                     "%s名 '%s' 应为 %s",
	"missing space around '%s'":                                     "'%s' 两侧缺少空格",
	"missing space after ','":                                       "',' 之后缺少空格",
	"unexpected space before ','":                                   "',' 之前有多余的空格",
	"unexpected space after '('":                                    "'(' 之后有多余的空格",
	"unexpected space before ')'":                                   "')' 之前有多余的空格",
	"missing space between '%s' and '('":                            "'%s' 和 '(' 之间缺少空格",
	"line is %d characters long, exceeds %d":                        "该行长度为 %d 个字符，超过了 %d",
	"#include should be preceded by a blank line":                   "#include 之前应有一个空行",
	"opening brace should be on the line of '%s'":                   "左花括号应与 '%s' 位于同一行",
	"missing space before '{'":                                      "'{' 之前缺少空格",
	"'else' should be on the same line as the preceding '}'":        "'else' 应与前面的 '}' 位于同一行",
	"more than one statement on line %d":                            "第 %d 行有多条语句",
	"parameter list of '%s' should be wrapped to fit in %d columns": "'%s' 的参数列表应换行以适应 %d 列",
	"wrapped parameter '%s' should align with the first parameter":  "换行的参数 '%s' 应与第一个参数对齐",
	"'%s:' should be indented %d space(s), not %d":                  "'%s:' 应缩进 %d 个空格，而不是 %d 个",

	// engine
	"input is empty":                                  "输入为空",
	"input is not valid UTF-8 text":                   "输入不是有效的 UTF-8 文本",
	"cannot read '%s': %v":                            "无法读取 '%s'：%v",
	"analysis of '%s' failed: %v":                     "分析 '%s' 失败：%v",
	"rule %s failed: %v":                              "规则 %s 执行失败：%v",
	"unknown rule id '%s'":                            "未知的规则 '%s'",
	"Use %d worker(s)":                                "使用 %d 个工作线程",
	"Start analyzing %d file(s)":                      "开始分析 %d 个文件",
	"Analysis of %s completed (%s, %v/%v) [%s]":       "%s 分析完成（%s，%v/%v）[%s]",
	"Analysis completed: %d finding(s) in %d file(s)": "分析完成：%[2]d 个文件中发现 %[1]d 个问题",
	"%d new finding(s) since run %s":                  "自运行 %[2]s 以来新增 %[1]d 个问题",
	"%s: %d finding(s)":                               "%s：%d 个问题",
}

func init() {
	for key, msg := range zh {
		if err := message.SetString(language.Chinese, key, msg); err != nil {
			panic(err)
		}
	}
}
